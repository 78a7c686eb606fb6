/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package dispatch gives every record operation its two call shapes: Do
// returns the result directly, Submit hands it to a completion function that
// runs exactly once after the operation's effects are committed.
package dispatch
