// Package save implements the capture-to-card orchestration: per captured
// selection it decides the generation path, attempts the immediate save,
// and classifies failures to route between queue-for-later and
// report-to-user. Connectivity failures never lose data; invalid content is
// never queued.
package save
