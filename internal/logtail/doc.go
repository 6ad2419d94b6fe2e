// Package logtail reads the tail of the dashboard log file and renders the
// zerolog JSON lines for a terminal. It backs the "logs" command.
//
// Read keeps only the last maxLines lines in a ring buffer, so memory stays
// bounded however large the file grows:
//
//	lines, err := logtail.Read("~/.local/state/homedash/homedash.log", 50)
//	if err != nil {
//		return err
//	}
//	return logtail.Render(os.Stdout, lines, false)
//
// Lines that are not JSON objects are written unchanged.
package logtail
