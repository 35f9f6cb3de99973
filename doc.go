/*
Package coloring is a layered digital coloring book. Each artwork is shown as
two rasters of the same size: a color layer the user paints on with a soft
round brush, and a line-art layer drawn on top of it which is never painted.

A Session owns both layers of the selected artwork. Selecting an artwork
resets the canvas at once and loads the line art and any saved progress in
the background; results of a superseded selection are discarded. Every
finished stroke and every clear is recorded in a bounded undo history and
saved through a Progress writer, so that coloring resumes where it was left.

The package comes with a command line interface opening a gio window:

	$ coloring --help

It can be used headlessly as well:

	loader := coloring.ResourceLoader{Base: "./images"}
	s, err := coloring.NewSession(coloring.Options{Loader: loader})
	if err != nil {
		log.Fatal(err)
	}
	s.Select(ctx, "cat.png")
	s.Wait()
	s.BeginStroke(100, 100)
	s.ContinueStroke(200, 150)
	s.EndStroke()
	if err := s.Export(w, coloring.FormatPNG); err != nil {
		log.Fatal(err)
	}
*/
package coloring
