// SPDX-License-Identifier: MPL-2.0

// Package deploy builds a generated project into a container image and hands
// it to a cloud CLI.
//
// A deployment runs sequentially: build the image with the configured
// container engine, optionally push it, then run the cloud CLI. Build and
// push output is written to temploy-build.log and cloud CLI output to
// temploy-deploy.log, both in the project directory.
package deploy
