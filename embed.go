package jobscope

import "embed"

// EmbeddedAssets holds the stock stylesheet and admin script. They are served
// under /public/ ahead of the static directory.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
