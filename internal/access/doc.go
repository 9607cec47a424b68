// Package access answers per-session RBAC questions for one UserContext:
// whether an action is permitted, which query constraints scope a data
// domain, and which record fields the caller may not see.
//
// A Service is an explicit value bound to one session. Build a new one when
// the acting role changes.
package access
