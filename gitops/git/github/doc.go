// Package github implements git.Repository and git.Tracker on top of the
// GitHub REST API (cloud or enterprise) through google/go-github. Configure
// with a Config containing the repository owner, name, and access token. Set
// EnterpriseHost for GitHub Enterprise installations, or BaseURL to point at
// any API root.
//
// Version tokens are the blob shas reported by the contents API.
package github
