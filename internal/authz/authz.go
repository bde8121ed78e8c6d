// Package authz decides whether a caller may perform an operation. Decisions
// are plain values; the HTTP layer turns them into responses.
package authz

import (
	"fmt"
	"net/url"
	"strings"
)

// Operation names a gated action.
type Operation string

const (
	OpRead       Operation = "read"
	OpCreatePost Operation = "create_post"
	OpEditPost   Operation = "edit_post"
	OpComment    Operation = "comment"
	OpFollow     Operation = "follow"
	OpUnfollow   Operation = "unfollow"
	OpFollowFeed Operation = "follow_feed"
	OpFlushCache Operation = "flush_cache"
)

// Outcome is the kind of decision.
type Outcome int

const (
	Deny Outcome = iota
	Permit
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Permit:
		return "permit"
	case Redirect:
		return "redirect"
	default:
		return "deny"
	}
}

// Decision is the result of Authorize. Target is set only for Redirect.
type Decision struct {
	Outcome Outcome
	Target  string
}

// Caller identifies who is asking. A zero UserID means anonymous.
type Caller struct {
	UserID  uint
	IsAdmin bool
}

// Anonymous reports whether the caller carries no identity.
func (c Caller) Anonymous() bool {
	return c.UserID == 0
}

// Resource describes what the operation touches.
type Resource struct {
	// OwnerID is the owning user of the target entity, when there is one.
	OwnerID uint
	// PostID is used to build the detail redirect for non-owner edits.
	PostID uint
	// URL is the originally requested URL, carried through the login redirect.
	URL string
}

// DefaultLoginURL is used when a Policy has no login URL configured.
const DefaultLoginURL = "/auth/login/"

// Policy holds the settings decisions depend on.
type Policy struct {
	LoginURL string
}

// Authorize evaluates op for caller against res using DefaultLoginURL.
func Authorize(op Operation, caller Caller, res Resource) Decision {
	return Policy{}.Authorize(op, caller, res)
}

// Authorize evaluates op for caller against res.
func (p Policy) Authorize(op Operation, caller Caller, res Resource) Decision {
	switch op {
	case OpRead:
		return Decision{Outcome: Permit}
	case OpCreatePost, OpComment, OpFollow, OpUnfollow, OpFollowFeed:
		if caller.Anonymous() {
			return p.toLogin(res)
		}
		return Decision{Outcome: Permit}
	case OpEditPost:
		if caller.Anonymous() {
			return p.toLogin(res)
		}
		if caller.UserID != res.OwnerID {
			return Decision{Outcome: Redirect, Target: PostDetailURL(res.PostID)}
		}
		return Decision{Outcome: Permit}
	case OpFlushCache:
		if caller.Anonymous() {
			return p.toLogin(res)
		}
		if !caller.IsAdmin {
			return Decision{Outcome: Deny}
		}
		return Decision{Outcome: Permit}
	default:
		return Decision{Outcome: Deny}
	}
}

func (p Policy) toLogin(res Resource) Decision {
	return Decision{Outcome: Redirect, Target: LoginRedirect(p.LoginURL, res.URL)}
}

// LoginRedirect builds the login URL with a "next" continuation.
func LoginRedirect(loginURL, next string) string {
	if loginURL == "" {
		loginURL = DefaultLoginURL
	}
	if next == "" {
		return loginURL
	}
	sep := "?"
	if strings.Contains(loginURL, "?") {
		sep = "&"
	}
	return loginURL + sep + "next=" + url.QueryEscape(next)
}

// PostDetailURL is the canonical detail path of a post.
func PostDetailURL(postID uint) string {
	return fmt.Sprintf("/posts/%d/", postID)
}

// ProfileURL is the canonical profile path of a user.
func ProfileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}
