// Package server exposes the editor over a JSON HTTP API: login and session
// check, revision submission and preview, file listing and reads on the
// default branch, and pass-through issue and pull request routes.
//
// Every route under /api, except the auth routes, requires a credential in
// the auth_token cookie or an Authorization bearer header. Failures answer
// {"error", "code", "step", "branch"}; step and branch are set for workflow
// failures so a caller can recover a branch left without a pull request.
package server
