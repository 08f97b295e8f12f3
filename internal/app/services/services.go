// Package services holds the business logic between controllers and repositories.
//
// Services defined in this package:
//   - AuthService: registration, login and session rotation
//   - BoardService: board listing and creation
//   - PostService: post CRUD, views and anonymity
//   - ReactionService: post like/dislike ledger
//   - CommentService: comments, replies and comment likes
//   - AdminService: user approval, roles, moderation and counter reconciliation
package services
