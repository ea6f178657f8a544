package plan_test

import (
	"errors"

	"github.com/gamecube-tools/swissinstall/internal/constants"
	"github.com/gamecube-tools/swissinstall/pkg/op"
	"github.com/gamecube-tools/swissinstall/pkg/payload"
	"github.com/gamecube-tools/swissinstall/pkg/plan"
	"github.com/gamecube-tools/swissinstall/pkg/profile"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/twpayne/go-vfs/v4"
	"github.com/twpayne/go-vfs/v4/vfst"
)

// rolesFor fills every role a layout can use with a fixture source path.
func rolesFor(layout profile.Layout) payload.Roles {
	roles := payload.Roles{}
	for role := range layout.Destinations {
		switch role {
		case profile.PrimaryBoot:
			roles[role] = "/payload/swiss.dol"
		case profile.ApploaderDir:
			roles[role] = "/payload/apploader"
		case profile.DeviceImage:
			roles[role] = "/payload/boot.iso"
		case profile.AuxBootImage:
			roles[role] = "/payload/chain.dol"
		case profile.AuxBootConfig:
			roles[role] = "/payload/chain.ini"
		}
	}
	return roles
}

func layoutFor(d profile.Device, v profile.Variant) profile.Layout {
	layout, err := profile.For(d, v)
	Expect(err).ToNot(HaveOccurred())
	return layout
}

var _ = Describe("planner and gate", func() {
	var fs vfs.FS
	var cleanup func()

	// newVolume rebuilds the fixture with the given pre-existing volume
	// files on top of the payload sources.
	newVolume := func(existing map[string]interface{}) {
		tree := map[string]interface{}{
			"/payload/swiss.dol":                       "swiss dol",
			"/payload/apploader/patches/apploader.img": "apploader",
			"/payload/boot.iso":                        "disc image",
			"/payload/chain.dol":                       "chain dol",
			"/payload/chain.ini":                       "chain ini",
		}
		for k, v := range existing {
			tree[k] = v
		}
		fs, cleanup, _ = vfst.NewTestFS(tree)
	}

	AfterEach(func() {
		cleanup()
	})

	It("Plans the bare picoboot install on an empty volume", func() {
		newVolume(nil)
		layout := layoutFor(profile.Picoboot, profile.VariantNone)
		p, err := plan.Build(fs, "/sd", layout, rolesFor(layout), false)
		Expect(err).ToNot(HaveOccurred())
		plan.Gate(fs, "/sd", p, false)

		Expect(p.Blocked()).To(BeFalse())
		Expect(p.Operations).To(Equal([]op.Operation{
			{Kind: op.Remove, Destination: "/sd/swiss/patches/apploader.img"},
			{Kind: op.MergeDir, Source: "/payload/apploader", Destination: "/sd/swiss"},
			{Kind: op.CopyFile, Source: "/payload/swiss.dol", Destination: "/sd/ipl.dol"},
		}))
	})

	It("Opens every plan with the apploader refresh pair", func() {
		newVolume(nil)
		combos := []struct {
			d profile.Device
			v profile.Variant
		}{
			{profile.Picoboot, profile.VariantNone},
			{profile.Picoboot, profile.Cubeboot},
			{profile.Picoboot, profile.Cubiboot},
			{profile.Picoloader, profile.VariantNone},
			{profile.Picoloader, profile.Cubiboot},
			{profile.GCLoader, profile.VariantNone},
		}
		for _, combo := range combos {
			layout := layoutFor(combo.d, combo.v)
			for _, force := range []bool{false, true} {
				p, err := plan.Build(fs, "/sd", layout, rolesFor(layout), force)
				Expect(err).ToNot(HaveOccurred())
				plan.Gate(fs, "/sd", p, force)
				Expect(p.Operations[0]).To(Equal(op.Operation{Kind: op.Remove, Destination: "/sd/swiss/patches/apploader.img"}))
				Expect(p.Operations[1]).To(Equal(op.Operation{Kind: op.MergeDir, Source: "/payload/apploader", Destination: "/sd/swiss"}))
			}
		}
	})

	It("Blocks the cubiboot chain when ipl.dol is in the way", func() {
		newVolume(map[string]interface{}{"/sd/ipl.dol": "previous loader"})
		layout := layoutFor(profile.Picoboot, profile.Cubiboot)
		p, err := plan.Build(fs, "/sd", layout, rolesFor(layout), false)
		Expect(err).ToNot(HaveOccurred())
		plan.Gate(fs, "/sd", p, false)

		Expect(p.Blocked()).To(BeTrue())
		Expect(errors.Is(p.Reason(), constants.ErrExistingFile)).To(BeTrue())
		Expect(p.Reason().Error()).To(ContainSubstring("/ipl.dol"))
		// the untouched swiss-gc copy survives, the blocked path is dropped
		Expect(p.Operations).To(ContainElement(op.Operation{Kind: op.CopyFile, Source: "/payload/swiss.dol", Destination: "/sd/swiss-gc.dol"}))
		for _, o := range p.Operations {
			Expect(o.Destination).ToNot(Equal("/sd/ipl.dol"))
		}
	})

	It("Retires a stale swiss-gc.dol before the boot copy", func() {
		newVolume(map[string]interface{}{"/sd/swiss-gc.dol": "stale cubiboot leftover"})
		layout := layoutFor(profile.Picoloader, profile.VariantNone)
		p, err := plan.Build(fs, "/sd", layout, rolesFor(layout), false)
		Expect(err).ToNot(HaveOccurred())
		plan.Gate(fs, "/sd", p, false)

		Expect(p.Blocked()).To(BeFalse())
		Expect(p.Operations[0]).To(Equal(op.Operation{Kind: op.Remove, Destination: "/sd/swiss-gc.dol"}))
		last := p.Operations[len(p.Operations)-1]
		Expect(last).To(Equal(op.Operation{Kind: op.CopyFile, Source: "/payload/swiss.dol", Destination: "/sd/ipl.dol"}))
	})

	It("Sweeps conflicting loader binaries with force", func() {
		newVolume(map[string]interface{}{
			"/sd/boot.dol": "leftover",
			"/sd/ipl.dol":  "leftover",
		})
		layout := layoutFor(profile.Picoloader, profile.VariantNone)
		p, err := plan.Build(fs, "/sd", layout, rolesFor(layout), true)
		Expect(err).ToNot(HaveOccurred())
		plan.Gate(fs, "/sd", p, true)

		Expect(p.Blocked()).To(BeFalse())
		Expect(p.Operations).To(Equal([]op.Operation{
			{Kind: op.Remove, Destination: "/sd/swiss/patches/apploader.img"},
			{Kind: op.MergeDir, Source: "/payload/apploader", Destination: "/sd/swiss"},
			{Kind: op.Remove, Destination: "/sd/boot.dol"},
			{Kind: op.Remove, Destination: "/sd/ipl.dol"},
			{Kind: op.CopyFile, Source: "/payload/swiss.dol", Destination: "/sd/ipl.dol"},
		}))
	})

	It("Blocks conflicting loader binaries without force", func() {
		newVolume(map[string]interface{}{
			"/sd/boot.dol": "leftover",
			"/sd/ipl.dol":  "leftover",
		})
		layout := layoutFor(profile.Picoloader, profile.VariantNone)
		p, err := plan.Build(fs, "/sd", layout, rolesFor(layout), false)
		Expect(err).ToNot(HaveOccurred())
		plan.Gate(fs, "/sd", p, false)

		Expect(p.Blocked()).To(BeTrue())
		Expect(p.Reason().Error()).To(ContainSubstring("/boot.dol"))
		Expect(p.Reason().Error()).To(ContainSubstring("/ipl.dol"))
		Expect(p.Operations).To(Equal([]op.Operation{
			{Kind: op.Remove, Destination: "/sd/swiss/patches/apploader.img"},
			{Kind: op.MergeDir, Source: "/payload/apploader", Destination: "/sd/swiss"},
		}))
		Expect(p.String()).To(ContainSubstring("blocked:"))
	})

	It("Plans the gcloader disc image", func() {
		newVolume(nil)
		layout := layoutFor(profile.GCLoader, profile.VariantNone)
		p, err := plan.Build(fs, "/sd", layout, rolesFor(layout), false)
		Expect(err).ToNot(HaveOccurred())
		plan.Gate(fs, "/sd", p, false)

		Expect(p.Blocked()).To(BeFalse())
		Expect(p.Operations).To(ContainElement(op.Operation{Kind: op.CopyFile, Source: "/payload/boot.iso", Destination: "/sd/boot.iso"}))
	})

	It("Writes the chain config when absent", func() {
		newVolume(nil)
		layout := layoutFor(profile.Picoboot, profile.Cubeboot)
		p, err := plan.Build(fs, "/sd", layout, rolesFor(layout), false)
		Expect(err).ToNot(HaveOccurred())
		plan.Gate(fs, "/sd", p, false)

		Expect(p.Blocked()).To(BeFalse())
		last := p.Operations[len(p.Operations)-1]
		Expect(last).To(Equal(op.Operation{Kind: op.CopyFile, Source: "/payload/chain.ini", Destination: "/sd/cubeboot.ini"}))
	})

	It("Keeps an existing chain config instead of blocking on it", func() {
		newVolume(map[string]interface{}{"/sd/cubeboot.ini": "user tuned settings"})
		layout := layoutFor(profile.Picoboot, profile.Cubeboot)
		p, err := plan.Build(fs, "/sd", layout, rolesFor(layout), false)
		Expect(err).ToNot(HaveOccurred())
		plan.Gate(fs, "/sd", p, false)

		Expect(p.Blocked()).To(BeFalse())
		for _, o := range p.Operations {
			Expect(o.Destination).ToNot(Equal("/sd/cubeboot.ini"))
		}
		content, err := fs.ReadFile("/sd/cubeboot.ini")
		Expect(err).ToNot(HaveOccurred())
		Expect(string(content)).To(Equal("user tuned settings"))
	})

	It("Gates boot copies but never the maintenance work", func() {
		newVolume(map[string]interface{}{
			"/sd/swiss/patches/apploader.img": "old apploader",
			"/sd/swiss-gc.dol":                "old swiss",
			"/sd/ipl.dol":                     "old chain",
		})
		layout := layoutFor(profile.Picoboot, profile.Cubiboot)
		p, err := plan.Build(fs, "/sd", layout, rolesFor(layout), false)
		Expect(err).ToNot(HaveOccurred())
		plan.Gate(fs, "/sd", p, false)

		// the swiss-gc.dol copy is gated even though the same path is
		// maintenance when removed, the exemption is per operation
		Expect(p.Blocked()).To(BeTrue())
		Expect(p.Reason().Error()).To(ContainSubstring("/swiss-gc.dol"))
		Expect(p.Reason().Error()).To(ContainSubstring("/ipl.dol"))
		Expect(p.Operations).To(Equal([]op.Operation{
			{Kind: op.Remove, Destination: "/sd/swiss/patches/apploader.img"},
			{Kind: op.MergeDir, Source: "/payload/apploader", Destination: "/sd/swiss"},
		}))
	})

	It("Plans the same operations twice over an unchanged volume", func() {
		newVolume(map[string]interface{}{
			"/sd/ipl.dol":      "leftover",
			"/sd/swiss-gc.dol": "stale",
		})
		layout := layoutFor(profile.Picoloader, profile.VariantNone)
		first, err := plan.Build(fs, "/sd", layout, rolesFor(layout), true)
		Expect(err).ToNot(HaveOccurred())
		plan.Gate(fs, "/sd", first, true)
		second, err := plan.Build(fs, "/sd", layout, rolesFor(layout), true)
		Expect(err).ToNot(HaveOccurred())
		plan.Gate(fs, "/sd", second, true)

		Expect(second.Operations).To(Equal(first.Operations))
	})

	It("Rejects a plan without the apploader payload", func() {
		newVolume(nil)
		layout := layoutFor(profile.Picoboot, profile.VariantNone)
		roles := rolesFor(layout)
		delete(roles, profile.ApploaderDir)
		_, err := plan.Build(fs, "/sd", layout, roles, false)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, constants.ErrMissingPayload)).To(BeTrue())
	})

	It("Rejects a plan missing a required boot payload", func() {
		newVolume(nil)
		layout := layoutFor(profile.Picoboot, profile.VariantNone)
		roles := rolesFor(layout)
		delete(roles, profile.PrimaryBoot)
		_, err := plan.Build(fs, "/sd", layout, roles, false)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, constants.ErrMissingPayload)).To(BeTrue())
	})

	It("Skips an optional chain config that never located", func() {
		newVolume(nil)
		layout := layoutFor(profile.Picoboot, profile.Cubeboot)
		roles := rolesFor(layout)
		delete(roles, profile.AuxBootConfig)
		p, err := plan.Build(fs, "/sd", layout, roles, false)
		Expect(err).ToNot(HaveOccurred())
		for _, o := range p.Operations {
			Expect(o.Destination).ToNot(Equal("/sd/cubeboot.ini"))
		}
	})
})
