/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package config loads backend and logging settings from a YAML file, a .env
// file and prefixed environment variables, and opens the selected store.
package config
