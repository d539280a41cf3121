package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/UkralStul/blog-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_LimitsFollowDomainConstants(t *testing.T) {
	local := strings.Repeat("a", domain.MaxEmailLength)

	tests := []struct {
		name    string
		in      any
		message string
	}{
		{"email", registerInput{Email: local + "@x.io", Password: "pw"},
			fmt.Sprintf("email must be at most %d characters", domain.MaxEmailLength)},
		{"title", postInput{Title: strings.Repeat("t", domain.MaxTitleLength+1), Body: "b"},
			fmt.Sprintf("title must be at most %d characters", domain.MaxTitleLength)},
		{"body", postInput{Title: "t", Body: strings.Repeat("b", domain.MaxBodyLength+1)},
			fmt.Sprintf("body must be at most %d characters", domain.MaxBodyLength)},
		{"content", commentInput{Content: strings.Repeat("c", domain.MaxCommentLength+1)},
			fmt.Sprintf("content must be at most %d characters", domain.MaxCommentLength)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := check(tt.in)
			require.ErrorIs(t, err, domain.ErrValidation)
			assert.EqualError(t, err, tt.message)
		})
	}

	assert.NoError(t, check(postInput{
		Title: strings.Repeat("t", domain.MaxTitleLength),
		Body:  strings.Repeat("b", domain.MaxBodyLength),
	}))
	assert.NoError(t, check(commentInput{Content: strings.Repeat("c", domain.MaxCommentLength)}))
}

func TestCheck_OnlyEmptyIsMissing(t *testing.T) {
	err := check(postInput{Title: "", Body: "b"})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.EqualError(t, err, "title is required")

	err = check(commentInput{})
	assert.EqualError(t, err, "content is required")

	// Строка из пробелов не пустая
	assert.NoError(t, check(postInput{Title: "   ", Body: "\t"}))
	assert.NoError(t, check(commentInput{Content: " "}))
}

func TestCheck_Mailbox(t *testing.T) {
	for _, email := range []string{"a@b.c", "first.last@sub.example.org"} {
		assert.NoError(t, check(registerInput{Email: email, Password: "pw"}), email)
	}
	for _, email := range []string{"a@b", "@b.c", "a b@c.d", "a@@b.c"} {
		assert.EqualError(t, check(registerInput{Email: email, Password: "pw"}), "email has an invalid format", email)
	}
}
