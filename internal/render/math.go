package render

import (
	"html/template"

	"git.sr.ht/~mekyt/latex2mathml"
)

const mathMLNamespace = "http://www.w3.org/1998/Math/MathML"

// InlineMath converts a LaTeX snippet to inline MathML.
func InlineMath(latex string) template.HTML {
	return template.HTML(latex2mathml.Convert(latex, mathMLNamespace, "inline", 0))
}

// BlockMath converts a LaTeX formula to display MathML.
func BlockMath(latex string) template.HTML {
	return template.HTML(latex2mathml.Convert(latex, mathMLNamespace, "block", 2))
}
