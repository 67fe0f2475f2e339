package views

// RenderInput renders the input bar.
func RenderInput(s State) string {
	return InputStyle.Render(s.Input.View())
}
