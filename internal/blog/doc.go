// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

/*
Package blog generates marketing blog posts with the Anthropic Messages
API.

Three pieces:

  - Client: a thin Messages API client with exponential-backoff retries
    on 429/5xx and a circuit breaker so a degraded API does not stall
    scheduled runs for minutes at a time.
  - Generator: picks a topic (configured rotation or caller override),
    prompts the model for a structured post, parses the response into a
    BlogPost row, and writes it as a draft or published per config.
  - Scheduler: fires the generator on a cron expression, evaluated in
    the configured timezone, with a per-run timeout. Runs inside the
    supervision tree.

Generated posts are platform-level content; they carry Source
"generated" and the model identifier so staff can tell them from
hand-written posts.
*/
package blog
