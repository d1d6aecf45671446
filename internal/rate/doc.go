// Package rate implements the Redis-backed abuse controls: a sliding-window
// request limiter keyed per client, and a failed-login lockout tracker keyed
// per account. The two layers are independent; the window limiter sheds
// request floods while the lockout tracker slows credential stuffing against
// a single account.
package rate
