// Package qtprocess runs Qt command-line tools (lupdate, lrelease, uic, ...)
// and turns their exit codes into text a user can act on.
//
// Exit codes are resolved through an ErrorCodeTable supplied by the caller.
// Known codes map to a message and a suggested resolution; unknown codes map
// to the fallback message and no resolution:
//
//	p := qtprocess.New(qtprocess.WithLogger(logger))
//	p.SetErrorCodes(qtprocess.NewErrorCodeTable(map[int]qtprocess.ErrorCode{
//	    1: {Message: "Cannot open the .ts file.", Resolution: "Check that the file is writable."},
//	}))
//
//	_, err := p.Run(ctx, qtprocess.Request{
//	    Program: qtprocess.ToolPath(qtdir, "lupdate"),
//	    Args:    []string{"app.pro", "-ts", "app_de.ts"},
//	})
//	var toolErr *qtprocess.ToolError
//	if errors.As(err, &toolErr) {
//	    fmt.Println(toolErr.Display())
//	}
package qtprocess
