package main

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"tilegen/internal/config"
	"tilegen/internal/display"
)

func setupInputHandlers(window *glfw.Window, v *viewer) {
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action == glfw.Release {
			return
		}
		switch key {
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		case glfw.KeySpace:
			v.store.SetSeed(v.store.GetSeed() + 1)
		case glfw.KeyR:
			v.store.Update(func(*config.Terrain) {})
		case glfw.KeyF:
			v.store.SetUseFalloff(!v.store.GetUseFalloff())
		case glfw.KeyEqual, glfw.KeyKPAdd:
			v.store.SetLevelOfDetail(v.store.GetLevelOfDetail() + 1)
		case glfw.KeyMinus, glfw.KeyKPSubtract:
			v.store.SetLevelOfDetail(v.store.GetLevelOfDetail() - 1)
		case glfw.Key1:
			v.setMode(display.NoiseMap)
		case glfw.Key2:
			v.setMode(display.ColorMap)
		case glfw.Key3:
			v.setMode(display.Mesh)
		case glfw.KeyLeft:
			v.cam.Orbit(-5, 0)
		case glfw.KeyRight:
			v.cam.Orbit(5, 0)
		case glfw.KeyUp:
			v.cam.Orbit(0, 5)
		case glfw.KeyDown:
			v.cam.Orbit(0, -5)
		}
	})

	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		if yoff > 0 {
			v.cam.Zoom(0.9)
		} else if yoff < 0 {
			v.cam.Zoom(1.1)
		}
	})

	// Framebuffer size callback
	window.SetFramebufferSizeCallback(func(w *glfw.Window, fbWidth, fbHeight int) {
		gl.Viewport(0, 0, int32(fbWidth), int32(fbHeight))
		v.cam.SetViewport(fbWidth, fbHeight)
	})
}
