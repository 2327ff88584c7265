package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adsysio/adsys/internal/container"
)

func TestDockerfileBuilder(t *testing.T) {
	assert := assert.New(t)

	dockerfile := container.NewDockerfileBuilder("debian:bookworm-slim").
		Env("PYTHONUNBUFFERED", "1").
		Workdir("/app").
		Copy(".", "/app").
		Run("make build").
		Expose("8080").
		Entrypoint([]string{"/app/server", "--listen", ":8080"}).
		String()

	assert.Equal(`FROM debian:bookworm-slim
ENV PYTHONUNBUFFERED=1
WORKDIR /app
COPY . /app
RUN make build
EXPOSE 8080
ENTRYPOINT ["/app/server","--listen",":8080"]
`, dockerfile)
}

func TestPackageBuilderInstall(t *testing.T) {
	tests := map[string]struct {
		distro   string
		packages []string
		expLine  string
		expErr   bool
	}{
		"debian should use apt-get with a single cleanup layer": {
			distro:   "debian",
			packages: []string{"curl", "git"},
			expLine:  "RUN apt-get update && DEBIAN_FRONTEND=noninteractive apt-get install -y --no-install-recommends curl git && apt-get clean && rm -rf /var/lib/apt/lists/*",
		},
		"fedora family should use dnf": {
			distro:   "fedora",
			packages: []string{"curl"},
			expLine:  "RUN dnf install -y curl && dnf clean all",
		},
		"alpine should use apk": {
			distro:   "alpine",
			packages: []string{"curl"},
			expLine:  "RUN apk add --no-cache curl",
		},
		"unknown distro should fail": {
			distro:   "plan9",
			packages: []string{"curl"},
			expErr:   true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			builder := container.NewPackageBuilder("base:latest", test.distro)
			err := builder.Install(test.packages)

			if test.expErr {
				require.Error(err)
				return
			}
			require.NoError(err)
			assert.Contains(builder.String(), test.expLine)
		})
	}
}

func TestPackageBuilderInstallEmpty(t *testing.T) {
	builder := container.NewPackageBuilder("base:latest", "debian")
	require.NoError(t, builder.Install(nil))
	assert.Equal(t, "FROM base:latest\n", builder.String())
}
