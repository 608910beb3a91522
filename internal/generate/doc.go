// Package generate produces and reviews single-file web apps with the
// Gemini API. The model is asked for one complete, self-contained HTML
// document per request; responses are fenced-block extracted so prose
// around the code never leaks into the artifact.
package generate
