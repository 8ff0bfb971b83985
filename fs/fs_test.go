package appfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS(t *testing.T) {
	// the underscore-prefixed partials are skipped by plain embed
	// patterns, so make sure they actually made it in.
	for _, path := range []string{
		"templates/email/_base.txt",
		"templates/email/_base.gohtml",
		"templates/email/password-reset.txt",
		"templates/email/preceptor-assigned.gohtml",
		"templates/email/lab-reminder.txt",
		"templates/email/internship-overdue.gohtml",
		"migrations/00001_init.sql",
	} {
		data, err := FS.ReadFile(path)
		require.NoErrorf(t, err, "reading %s", path)
		assert.NotEmpty(t, data, path)
	}
}
