package repo

import (
	"strings"

	"github.com/andreyvit/rscache"
)

// RepoError describes a failed repository operation.
type RepoError struct {
	Op  string
	ID  rscache.RepositoryID
	Msg string
	Err error
}

func repoErrf(op string, id rscache.RepositoryID, err error, msg string) error {
	return &RepoError{Op: op, ID: id, Msg: msg, Err: err}
}

func (e *RepoError) Unwrap() error {
	return e.Err
}

func (e *RepoError) Error() string {
	var buf strings.Builder
	buf.WriteString("repo.")
	buf.WriteString(e.Op)
	if !e.ID.IsZero() {
		buf.WriteByte(' ')
		buf.WriteString(e.ID.String())
	}
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
	}
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

func notFound(op string, id rscache.RepositoryID) error {
	return repoErrf(op, id, rscache.ErrNotFound, "")
}

func invalidArg(op, msg string) error {
	return repoErrf(op, 0, rscache.ErrInvalidArgument, msg)
}
