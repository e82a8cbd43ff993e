/*
Package rescale resizes images into a bounding box while keeping their aspect ratio.

It reads and writes JPEG, GIF, PNG, XBM, WBMP, BMP and WebP. The input format is
always detected from the image content; the output format follows the file
extension of the destination.

The package provides a command line interface, supporting various flags for batch,
pipe and watch mode processing. To check the supported commands type:

	$ rescale --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"fmt"
		"github.com/esimov/rescale"
	)

	func main() {
		p := &rescale.Processor{
			NewWidth: 128,
		}

		if _, err := p.ProcessFile("in.jpg", "out.png"); err != nil {
			fmt.Printf("Error rescaling image: %s", err.Error())
		}
	}

Only the size computation is needed? Fit returns the target dimensions
without touching any pixels:

	size, err := rescale.Fit(1000, 500, rescale.Request{Width: rescale.Dim(128)})
	// size == rescale.Size{Width: 128, Height: 64}
*/
package rescale
