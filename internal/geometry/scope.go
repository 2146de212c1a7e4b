package geometry

// AdjustToScope re-expresses a document-space rectangle relative to the
// active search scope. A nil scope means the whole page or frame is the
// comparison target and rect is returned unchanged. Otherwise rect is
// clipped to the scope and shifted so the scope's top-left corner becomes
// the origin. The result may be empty when rect lies outside the scope.
func AdjustToScope(rect Rectangle, scope *Rectangle) Rectangle {
	if scope == nil {
		return rect
	}
	clipped := Intersect(rect, *scope)
	return Translate(clipped, -scope.X, -scope.Y)
}
