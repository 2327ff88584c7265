package commands

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var envKeyRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// parseEnvSpecs turns `KEY=VALUE` and bare `KEY` specs (inherited from the
// host environment) into an environment map. Later entries win.
func parseEnvSpecs(specs []string) (map[string]string, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	env := map[string]string{}
	for _, spec := range specs {
		key, value, found := strings.Cut(spec, "=")
		if !found {
			hostValue, ok := os.LookupEnv(key)
			if !ok {
				return nil, fmt.Errorf("environment variable %q is not set on the host", key)
			}
			value = hostValue
		}
		if !envKeyRe.MatchString(key) {
			return nil, fmt.Errorf("invalid environment variable name %q", key)
		}
		env[key] = value
	}

	return env, nil
}

// parsePortSpecs turns `HOST:CONTAINER` specs into a container-port to
// host-port map. A bare `PORT` maps the same port on both sides.
func parsePortSpecs(specs []string) (map[string]string, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	ports := map[string]string{}
	for _, spec := range specs {
		hostPort, containerPort, found := strings.Cut(spec, ":")
		if !found {
			containerPort = hostPort
		}
		if hostPort == "" || containerPort == "" {
			return nil, fmt.Errorf("invalid port mapping %q (expected HOST:CONTAINER)", spec)
		}
		ports[containerPort] = hostPort
	}

	return ports, nil
}

// parseVolumeSpecs turns `HOST:CONTAINER` specs into a host-path to
// container-path map.
func parseVolumeSpecs(specs []string) (map[string]string, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	volumes := map[string]string{}
	for _, spec := range specs {
		hostPath, containerPath, found := strings.Cut(spec, ":")
		if !found || hostPath == "" || containerPath == "" {
			return nil, fmt.Errorf("invalid volume mapping %q (expected HOST:CONTAINER)", spec)
		}
		volumes[hostPath] = containerPath
	}

	return volumes, nil
}

// parseKeyValueSpecs turns `KEY=VALUE` specs into a map, rejecting anything
// without an `=`.
func parseKeyValueSpecs(specs []string) (map[string]string, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	kvs := map[string]string{}
	for _, spec := range specs {
		key, value, found := strings.Cut(spec, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid value %q (expected KEY=VALUE)", spec)
		}
		kvs[key] = value
	}

	return kvs, nil
}
