// Package gitlab implements git.Repository on top of the GitLab REST API
// through gitlab.com/gitlab-org/api/client-go. Merge requests stand in for
// pull requests and a file's last commit id serves as its version token.
// The issue tracker surface is not provided for GitLab.
package gitlab
