package utils_test

import (
	"os"
	"path/filepath"

	"github.com/gamecube-tools/swissinstall/internal/utils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/twpayne/go-vfs/v4"
	"github.com/twpayne/go-vfs/v4/vfst"
)

var _ = Describe("install utils", func() {
	Context("ReadEnv", func() {
		It("Parses correctly an env file", func() {
			tmpDir, err := os.MkdirTemp("", "")
			Expect(err).ToNot(HaveOccurred())
			defer os.RemoveAll(tmpDir)
			err = os.WriteFile(filepath.Join(tmpDir, "config.env"), []byte("GITHUB_TOKEN=\"ghp_fake\"\nOTHER=\"value with spaces\""), os.ModePerm)
			Expect(err).ToNot(HaveOccurred())
			env, err := utils.ReadEnv(filepath.Join(tmpDir, "config.env"))
			Expect(err).ToNot(HaveOccurred())
			Expect(env).To(HaveKey("GITHUB_TOKEN"))
			Expect(env).To(HaveKey("OTHER"))
			Expect(env["GITHUB_TOKEN"]).To(Equal("ghp_fake"))
			Expect(env["OTHER"]).To(Equal("value with spaces"))
		})
		It("Fails on a missing file", func() {
			_, err := utils.ReadEnv("/nowhere/config.env")
			Expect(err).To(HaveOccurred())
		})
	})

	Context("Token", func() {
		var oldToken, oldConfig string

		BeforeEach(func() {
			oldToken = os.Getenv("GITHUB_TOKEN")
			oldConfig = os.Getenv("SWISSINSTALL_CONFIG")
			Expect(os.Unsetenv("GITHUB_TOKEN")).ToNot(HaveOccurred())
			Expect(os.Unsetenv("SWISSINSTALL_CONFIG")).ToNot(HaveOccurred())
		})
		AfterEach(func() {
			_ = os.Setenv("GITHUB_TOKEN", oldToken)
			_ = os.Setenv("SWISSINSTALL_CONFIG", oldConfig)
		})

		It("Returns empty without any source", func() {
			Expect(utils.Token()).To(Equal(""))
		})
		It("Prefers the environment variable", func() {
			Expect(os.Setenv("GITHUB_TOKEN", "from-env")).ToNot(HaveOccurred())
			Expect(utils.Token()).To(Equal("from-env"))
		})
		It("Falls back to the config env file", func() {
			tmpDir, err := os.MkdirTemp("", "")
			Expect(err).ToNot(HaveOccurred())
			defer os.RemoveAll(tmpDir)
			cfg := filepath.Join(tmpDir, "config.env")
			err = os.WriteFile(cfg, []byte("GITHUB_TOKEN=from-file\n"), os.ModePerm)
			Expect(err).ToNot(HaveOccurred())
			Expect(os.Setenv("SWISSINSTALL_CONFIG", cfg)).ToNot(HaveOccurred())
			Expect(utils.Token()).To(Equal("from-file"))
		})
		It("Returns empty when the config file is unreadable", func() {
			Expect(os.Setenv("SWISSINSTALL_CONFIG", "/nowhere/config.env")).ToNot(HaveOccurred())
			Expect(utils.Token()).To(Equal(""))
		})
	})

	Context("CreateIfNotExists", func() {
		It("Creates nested dirs and tolerates existing ones", func() {
			tmpDir, err := os.MkdirTemp("", "")
			Expect(err).ToNot(HaveOccurred())
			defer os.RemoveAll(tmpDir)
			target := filepath.Join(tmpDir, "a", "b", "c")
			Expect(utils.CreateIfNotExists(target)).ToNot(HaveOccurred())
			info, err := os.Stat(target)
			Expect(err).ToNot(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
			Expect(utils.CreateIfNotExists(target)).ToNot(HaveOccurred())
		})
	})

	Context("HideTargets", func() {
		var fs vfs.FS
		var cleanup func()

		BeforeEach(func() {
			fs, cleanup, _ = vfst.NewTestFS(map[string]interface{}{
				"/sd/ipl.dol":                  "dol",
				"/sd/cubeboot.ini":             "ini",
				"/sd/autoexec.cli":             "cli",
				"/sd/keep.iso":                 "iso",
				"/sd/GBI/gbi.dol":              "dol",
				"/sd/MCBACKUP/save.gci":        "gci",
				"/sd/swiss/patches/appldr.img": "img",
			})
		})
		AfterEach(func() {
			cleanup()
		})

		It("Matches the hide patterns in order", func() {
			targets, err := utils.HideTargets(fs, "/sd")
			Expect(err).ToNot(HaveOccurred())
			// *.dol entries come first, the swiss dir itself last
			Expect(targets[0]).To(HavePrefix("/sd"))
			Expect(targets[0]).To(HaveSuffix(".dol"))
			Expect(targets[len(targets)-1]).To(Equal("/sd/swiss"))
			Expect(targets).To(ContainElement("/sd/ipl.dol"))
			Expect(targets).To(ContainElement("/sd/GBI/gbi.dol"))
			Expect(targets).To(ContainElement("/sd/cubeboot.ini"))
			Expect(targets).To(ContainElement("/sd/autoexec.cli"))
			Expect(targets).To(ContainElement("/sd/GBI"))
			Expect(targets).To(ContainElement("/sd/MCBACKUP"))
		})
		It("Leaves unmatched files alone", func() {
			targets, err := utils.HideTargets(fs, "/sd")
			Expect(err).ToNot(HaveOccurred())
			Expect(targets).ToNot(ContainElement("/sd/keep.iso"))
			Expect(targets).ToNot(ContainElement("/sd"))
		})
	})
})
