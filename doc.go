// Package main provides the entry point of Page Notification Email.
// It runs a Fiber web service where editors store notification recipients
// and a custom message per post and send a templated HTML email linking to
// the post. Site wide settings hold the subject, the message template, an
// optional BCC address and the post types the panel is enabled for. The
// notify command drives the same save-then-send flow from the shell.
package main
