// SPDX-License-Identifier: MPL-2.0

// Package cueutil turns CUE evaluation errors into messages that point at
// the offending field in the user's file, for example:
//
//	config.cue: deploy.cloud_args[1]: conflicting values 3 and string
package cueutil
