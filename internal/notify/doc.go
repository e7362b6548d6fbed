// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package notify delivers auth messages, either to a writer for local
// development or as persistent JSON messages on a RabbitMQ queue that a
// mail worker consumes.
package notify
