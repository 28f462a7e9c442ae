// Package qtconfig reads the build configuration of a Qt installation from
// its mkspecs/qconfig.pri file.
//
// Only two directive shapes are recognized:
//
//	CONFIG <words separated by spaces or tabs>
//	DEFAULT_SIGNATURE = <path>
//
// A "static" word in a CONFIG line marks a static build and a "shared" word
// marks a shared one; the last such word in the file wins. DEFAULT_SIGNATURE
// names the code-signing certificate used for Windows CE packaging; the last
// line carrying an '=' wins. Everything else, including comments, variable
// references, scopes and include directives, is ignored.
//
// Reading is best effort. A missing file means "nothing configured" and a
// read fault keeps whatever was parsed before it:
//
//	cfg := qtconfig.Read(`C:\Qt\5.15.2\msvc2019_64`, qtconfig.WithLogger(logger))
//	if cfg.IsStaticBuild() {
//	    // link statically
//	}
//	if sig, ok := cfg.SignatureFile(); ok {
//	    // sign the CAB with sig
//	}
package qtconfig
