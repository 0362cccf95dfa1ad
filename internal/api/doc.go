// Package api exposes the HTTP trigger surface consumed by the browser-side
// collaborator: capture submission, manual-entry confirmation, queue and
// history inspection, and the read-only deck/model enumerations used to
// populate destination choices.
package api
