// Package forms validates user-submitted input before it reaches storage.
// Each parser returns either a value to persist or a map of field errors.
package forms

import (
	"strconv"
	"strings"
)

type FieldErrors map[string]string

func (e FieldErrors) Any() bool { return len(e) > 0 }

type PostForm struct {
	Text    string
	GroupID int64
	Image   string
}

// ParsePost validates a post submission. groupID is the raw form value:
// empty means no group, anything else must be a positive integer id.
func ParsePost(text, groupID string) (PostForm, FieldErrors) {
	errs := FieldErrors{}
	f := PostForm{Text: strings.TrimSpace(text)}

	if f.Text == "" {
		errs["text"] = "Post text is required"
	}
	if groupID != "" {
		id, err := strconv.ParseInt(groupID, 10, 64)
		if err != nil || id < 1 {
			errs["group"] = "Unknown group"
		} else {
			f.GroupID = id
		}
	}
	if errs.Any() {
		return f, errs
	}
	return f, nil
}

type CommentForm struct {
	Text string
}

func ParseComment(text string) (CommentForm, FieldErrors) {
	f := CommentForm{Text: strings.TrimSpace(text)}
	if f.Text == "" {
		return f, FieldErrors{"text": "Comment text is required"}
	}
	return f, nil
}
