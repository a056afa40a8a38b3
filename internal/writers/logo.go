// internal/writers/logo.go
package writers

import (
	"io"

	"mavekit/internal/jsonutil"
	"mavekit/internal/logo"
)

func init() {
	RegisterLogo("csv", logo.WriteCSV)
	RegisterLogo("tsv", logo.WriteTSV)
	RegisterLogo("json", func(w io.Writer, m logo.Matrix) error {
		return jsonutil.EncodePretty(w, logo.ToAPI(m))
	})
	RegisterLogo("svg", func(w io.Writer, m logo.Matrix) error {
		return logo.WriteSVG(w, m, logo.DefaultSVGOptions)
	})
	RegisterLogo("text", func(w io.Writer, m logo.Matrix) error {
		opt := logo.DefaultRenderOptions
		opt.Color = false
		_, err := io.WriteString(w, logo.Render(m, opt))
		return err
	})
}
