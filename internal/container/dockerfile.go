package container

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/adsysio/adsys/internal/model"
)

// DockerfileBuilder generates Dockerfiles programmatically.
type DockerfileBuilder struct {
	lines []string
}

// NewDockerfileBuilder creates a builder starting from a base image.
func NewDockerfileBuilder(baseImage string) *DockerfileBuilder {
	return &DockerfileBuilder{lines: []string{fmt.Sprintf("FROM %s", baseImage)}}
}

// Run appends a RUN instruction.
func (b *DockerfileBuilder) Run(command string) *DockerfileBuilder {
	b.lines = append(b.lines, fmt.Sprintf("RUN %s", command))
	return b
}

// Copy appends a COPY instruction.
func (b *DockerfileBuilder) Copy(src, dest string) *DockerfileBuilder {
	b.lines = append(b.lines, fmt.Sprintf("COPY %s %s", src, dest))
	return b
}

// Env appends an ENV instruction.
func (b *DockerfileBuilder) Env(key, value string) *DockerfileBuilder {
	b.lines = append(b.lines, fmt.Sprintf("ENV %s=%s", key, value))
	return b
}

// Workdir appends a WORKDIR instruction.
func (b *DockerfileBuilder) Workdir(path string) *DockerfileBuilder {
	b.lines = append(b.lines, fmt.Sprintf("WORKDIR %s", path))
	return b
}

// Expose appends an EXPOSE instruction.
func (b *DockerfileBuilder) Expose(port string) *DockerfileBuilder {
	b.lines = append(b.lines, fmt.Sprintf("EXPOSE %s", port))
	return b
}

// Entrypoint appends an ENTRYPOINT instruction in exec form.
func (b *DockerfileBuilder) Entrypoint(cmd []string) *DockerfileBuilder {
	b.lines = append(b.lines, fmt.Sprintf("ENTRYPOINT %s", execForm(cmd)))
	return b
}

// Cmd appends a CMD instruction in exec form.
func (b *DockerfileBuilder) Cmd(cmd []string) *DockerfileBuilder {
	b.lines = append(b.lines, fmt.Sprintf("CMD %s", execForm(cmd)))
	return b
}

// String renders the Dockerfile.
func (b *DockerfileBuilder) String() string {
	return strings.Join(b.lines, "\n") + "\n"
}

// Write writes the Dockerfile to disk.
func (b *DockerfileBuilder) Write(path string) error {
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("could not write Dockerfile to %s: %w", path, err)
	}
	return nil
}

func execForm(cmd []string) string {
	encoded, _ := json.Marshal(cmd)
	return string(encoded)
}

// PackageBuilder is a Dockerfile builder that abstracts package management:
// Install emits the correct single-layer install instruction for the image's
// distro family.
type PackageBuilder struct {
	*DockerfileBuilder
	distro string
}

// NewPackageBuilder creates a package-aware Dockerfile builder.
func NewPackageBuilder(baseImage, distroFamily string) *PackageBuilder {
	return &PackageBuilder{
		DockerfileBuilder: NewDockerfileBuilder(baseImage),
		distro:            strings.ToLower(distroFamily),
	}
}

// Install appends a RUN instruction installing the packages with update,
// install and cleanup collapsed into a single layer.
func (b *PackageBuilder) Install(packages []string) error {
	if len(packages) == 0 {
		return nil
	}

	pkgs := strings.Join(packages, " ")

	switch b.distro {
	case "debian", "ubuntu":
		b.Run(fmt.Sprintf(
			"apt-get update && "+
				"DEBIAN_FRONTEND=noninteractive apt-get install -y --no-install-recommends %s && "+
				"apt-get clean && "+
				"rm -rf /var/lib/apt/lists/*", pkgs))
	case "rhel", "centos", "fedora", "oracle", "rocky", "almalinux":
		b.Run(fmt.Sprintf("dnf install -y %s && dnf clean all", pkgs))
	case "alpine":
		b.Run(fmt.Sprintf("apk add --no-cache %s", pkgs))
	default:
		return fmt.Errorf("unknown distro family %q: %w", b.distro, model.ErrNotValid)
	}

	return nil
}
