package scene

import (
	"bufio"
	"encoding/xml"
	"io"
)

// WriteSVG renders the current tree as an SVG document.
func (s *Scene) WriteSVG(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if err := s.write(bw, s.elems[s.root]); err != nil {
		return err
	}
	return bw.Flush()
}

func (s *Scene) write(w *bufio.Writer, e *element) error {
	w.WriteByte('<')
	w.WriteString(string(e.kind))
	for _, a := range e.attrs {
		w.WriteByte(' ')
		w.WriteString(a.Name)
		w.WriteString(`="`)
		if err := xml.EscapeText(w, []byte(a.Value)); err != nil {
			return err
		}
		w.WriteByte('"')
	}
	if role := e.role; role != "" {
		w.WriteString(` data-role="`)
		if err := xml.EscapeText(w, []byte(role)); err != nil {
			return err
		}
		w.WriteByte('"')
	}

	if len(e.children) == 0 && !e.hasText {
		_, err := w.WriteString("/>")
		return err
	}

	w.WriteByte('>')
	if e.hasText {
		if err := xml.EscapeText(w, []byte(e.text)); err != nil {
			return err
		}
	}
	for _, c := range e.children {
		if err := s.write(w, s.elems[c]); err != nil {
			return err
		}
	}
	w.WriteString("</")
	w.WriteString(string(e.kind))
	_, err := w.WriteString(">")
	return err
}
