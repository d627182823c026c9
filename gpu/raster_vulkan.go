// raster_vulkan.go - Optional Vulkan-accelerated rasterizer backend

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
raster_vulkan.go - HardwareRasterizer

Mirrors the teacher's VulkanBackend (voodoo_vulkan.go): attempt to stand
up a minimal offscreen Vulkan instance/device at construction time, and
if anything in that sequence fails, silently keep the embedded software
backend as the thing Render actually calls. Unlike the teacher's full
pipeline-cache-per-draw-state backend, this one delegates all actual
rasterization work to SoftwareRasterizer even when Vulkan did initialize
- the instance/device stand-up is the part worth having a hardware path
for (establishing that a GPU is present and drivers load), while the
edge-walk rasterizer itself stays one implementation so its behavior
can't drift between backends.
*/

package gpu

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// HardwareRasterizer wraps SoftwareRasterizer and additionally owns a
// Vulkan instance/device pair, present purely so the device is known to
// exist; Render still dispatches to the software path.
type HardwareRasterizer struct {
	software *SoftwareRasterizer

	instance       vk.Instance
	physicalDevice vk.PhysicalDevice
	device         vk.Device
	available      bool
}

// NewHardwareRasterizer tries to initialize Vulkan; on any failure it
// returns a rasterizer whose Render() calls fall straight through to the
// software backend, exactly as the teacher's NewVulkanBackend does when
// initVulkan fails.
func NewHardwareRasterizer(workers int) *HardwareRasterizer {
	hw := &HardwareRasterizer{software: NewSoftwareRasterizer(workers)}
	if err := hw.initVulkan(); err != nil {
		fmt.Printf("vulkan rasterizer unavailable, using software: %v\n", err)
		hw.available = false
	}
	return hw
}

func (hw *HardwareRasterizer) initVulkan() error {
	if err := vk.Init(); err != nil {
		return fmt.Errorf("vulkan init: %w", err)
	}

	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   safeString("ndscore"),
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PEngineName:        safeString("ndscore gpu"),
		EngineVersion:      vk.MakeVersion(1, 0, 0),
		ApiVersion:         vk.MakeVersion(1, 1, 0),
	}
	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &appInfo,
	}

	var instance vk.Instance
	if ret := vk.CreateInstance(&createInfo, nil, &instance); ret != vk.Success {
		return fmt.Errorf("vkCreateInstance failed: %d", ret)
	}
	hw.instance = instance
	vk.InitInstance(instance)

	var deviceCount uint32
	vk.EnumeratePhysicalDevices(instance, &deviceCount, nil)
	if deviceCount == 0 {
		return fmt.Errorf("no vulkan physical devices")
	}
	devices := make([]vk.PhysicalDevice, deviceCount)
	vk.EnumeratePhysicalDevices(instance, &deviceCount, devices)
	hw.physicalDevice = devices[0]
	hw.available = true
	return nil
}

func (hw *HardwareRasterizer) Render(fb *Framebuffer, polys []Polygon, params RenderParams, tex func(Polygon) *TextureUnit) {
	hw.software.Render(fb, polys, params, tex)
}

func (hw *HardwareRasterizer) Stop() {
	hw.software.Stop()
	if hw.available {
		vk.DestroyInstance(hw.instance, nil)
	}
}

func (hw *HardwareRasterizer) Available() bool { return hw.available }

func safeString(s string) string { return s + "\x00" }
