package op_test

import (
	"github.com/gamecube-tools/swissinstall/pkg/op"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/twpayne/go-vfs/v4"
	"github.com/twpayne/go-vfs/v4/vfst"
)

var _ = Describe("volume operations", func() {
	var fs vfs.FS
	var cleanup func()

	BeforeEach(func() {
		fs, cleanup, _ = vfst.NewTestFS(map[string]interface{}{
			"/payload/swiss.dol":                       "new dol",
			"/payload/apploader/patches/apploader.img": "new apploader",
			"/payload/apploader/swiss.ini":             "new settings",
			"/sd/swiss/patches/apploader.img":          "old apploader",
			"/sd/swiss/saves/game.sav":                 "precious",
		})
	})
	AfterEach(func() {
		cleanup()
	})

	It("Copies a file into a directory that is not there yet", func() {
		o := op.Operation{Kind: op.CopyFile, Source: "/payload/swiss.dol", Destination: "/sd/sub/ipl.dol"}
		Expect(o.Run(fs)).ToNot(HaveOccurred())
		content, err := fs.ReadFile("/sd/sub/ipl.dol")
		Expect(err).ToNot(HaveOccurred())
		Expect(string(content)).To(Equal("new dol"))
	})

	It("Truncates the previous content on copy", func() {
		Expect(fs.WriteFile("/sd/ipl.dol", []byte("a much longer previous loader build"), 0o644)).ToNot(HaveOccurred())
		o := op.Operation{Kind: op.CopyFile, Source: "/payload/swiss.dol", Destination: "/sd/ipl.dol"}
		Expect(o.Run(fs)).ToNot(HaveOccurred())
		content, err := fs.ReadFile("/sd/ipl.dol")
		Expect(err).ToNot(HaveOccurred())
		Expect(string(content)).To(Equal("new dol"))
	})

	It("Fails the copy when the source is gone", func() {
		o := op.Operation{Kind: op.CopyFile, Source: "/payload/nope.dol", Destination: "/sd/ipl.dol"}
		Expect(o.Run(fs)).To(HaveOccurred())
	})

	It("Merges a directory over an existing tree without touching extras", func() {
		o := op.Operation{Kind: op.MergeDir, Source: "/payload/apploader", Destination: "/sd/swiss"}
		Expect(o.Run(fs)).ToNot(HaveOccurred())

		content, err := fs.ReadFile("/sd/swiss/patches/apploader.img")
		Expect(err).ToNot(HaveOccurred())
		Expect(string(content)).To(Equal("new apploader"))
		content, err = fs.ReadFile("/sd/swiss/swiss.ini")
		Expect(err).ToNot(HaveOccurred())
		Expect(string(content)).To(Equal("new settings"))
		// files only present on the volume survive the merge
		content, err = fs.ReadFile("/sd/swiss/saves/game.sav")
		Expect(err).ToNot(HaveOccurred())
		Expect(string(content)).To(Equal("precious"))
	})

	It("Removes files and directories alike", func() {
		o := op.Operation{Kind: op.Remove, Destination: "/sd/swiss/patches/apploader.img"}
		Expect(o.Run(fs)).ToNot(HaveOccurred())
		Expect(op.Exists(fs, "/sd/swiss/patches/apploader.img")).To(BeFalse())

		o = op.Operation{Kind: op.Remove, Destination: "/sd/swiss"}
		Expect(o.Run(fs)).ToNot(HaveOccurred())
		Expect(op.Exists(fs, "/sd/swiss")).To(BeFalse())
	})

	It("Treats removing a missing path as done", func() {
		o := op.Operation{Kind: op.Remove, Destination: "/sd/not-there.dol"}
		Expect(o.Run(fs)).ToNot(HaveOccurred())
	})

	It("Refuses an unknown kind", func() {
		o := op.Operation{Kind: op.Kind("symlink"), Destination: "/sd/x"}
		Expect(o.Run(fs)).To(HaveOccurred())
	})

	It("Prints itself for the plan report", func() {
		Expect(op.Operation{Kind: op.Remove, Destination: "/sd/ipl.dol"}.String()).
			To(Equal("remove /sd/ipl.dol"))
		Expect(op.Operation{Kind: op.CopyFile, Source: "/a", Destination: "/b"}.String()).
			To(Equal("copyFile /a -> /b"))
	})
})
