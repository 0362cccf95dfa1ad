// Package generation defines the boundary between the save pipeline and
// external LLM completion services. It holds the generator interfaces, the
// prompt template rendering, and the credential shape check, keeping the
// application core free of any concrete LLM client dependency.
package generation
