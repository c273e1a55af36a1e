package parser

import "errors"

// ErrNoImages means no strategy found a single image on the page.
var ErrNoImages = errors.New("no images found")
