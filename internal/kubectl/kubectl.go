// Package kubectl wraps the kubectl CLI with typed helpers for the common
// resource, pod, deployment, namespace and context operations.
package kubectl

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"k8s.io/client-go/util/homedir"

	"github.com/adsysio/adsys/internal/log"
	"github.com/adsysio/adsys/internal/shell"
)

// RunnerConfig is the configuration of Runner.
type RunnerConfig struct {
	// Kubeconfig is the kubeconfig file path. Empty defaults to
	// `~/.kube/config`.
	Kubeconfig string
	// Context is the kubeconfig context to use. Empty uses the current one.
	Context string
	// Namespace is the default namespace for namespaced operations.
	Namespace string
	Runner    shell.Runner
	Logger    log.Logger
}

func (c *RunnerConfig) defaults() error {
	if c.Kubeconfig == "" {
		c.Kubeconfig = filepath.Join(homedir.HomeDir(), ".kube", "config")
	}

	if c.Runner == nil {
		runner, err := shell.NewExecutor(shell.ExecutorConfig{Logger: c.Logger})
		if err != nil {
			return fmt.Errorf("could not create shell executor: %w", err)
		}
		c.Runner = runner
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "kubectl.Runner"})

	return nil
}

// Runner runs kubectl commands against a single cluster context.
type Runner struct {
	kubeconfig string
	namespace  string
	runner     shell.Runner
	logger     log.Logger

	mu      sync.Mutex
	context string
}

// NewRunner returns a new kubectl runner.
func NewRunner(config RunnerConfig) (*Runner, error) {
	err := config.defaults()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Runner{
		kubeconfig: config.Kubeconfig,
		context:    config.Context,
		namespace:  config.Namespace,
		runner:     config.Runner,
		logger:     config.Logger,
	}, nil
}

func (r *Runner) baseArgs() []string {
	args := []string{"kubectl", "--kubeconfig", r.kubeconfig}

	r.mu.Lock()
	if r.context != "" {
		args = append(args, "--context", r.context)
	}
	r.mu.Unlock()

	if r.namespace != "" {
		args = append(args, "--namespace", r.namespace)
	}

	return args
}

// RunCommand runs a raw kubectl command and returns its stdout.
func (r *Runner) RunCommand(ctx context.Context, args ...string) (string, error) {
	argv := append(r.baseArgs(), args...)
	r.logger.Debugf("Running %v", argv)

	result, err := r.runner.Run(ctx, shell.Request{Argv: argv, Check: true})
	if err != nil {
		return "", fmt.Errorf("kubectl %s failed: %w", args[0], err)
	}

	return result.Stdout, nil
}

// RunCommandJSON runs a kubectl command and decodes its stdout into out.
func (r *Runner) RunCommandJSON(ctx context.Context, out any, args ...string) error {
	stdout, err := r.RunCommand(ctx, args...)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(stdout), out); err != nil {
		return fmt.Errorf("could not parse kubectl output: %w", err)
	}

	return nil
}

// Apply applies a manifest file.
func (r *Runner) Apply(ctx context.Context, filePath, namespace string) (string, error) {
	r.logger.Infof("Applying %s", filePath)

	args := []string{"apply", "-f", filePath}
	args = withNamespace(args, namespace)

	return r.RunCommand(ctx, args...)
}

// DeleteOptions tweak resource deletion.
type DeleteOptions struct {
	Namespace string
	Force     bool
}

// Delete deletes a resource.
func (r *Runner) Delete(ctx context.Context, resourceType, name string, opts DeleteOptions) error {
	r.logger.Infof("Deleting %s/%s", resourceType, name)

	args := []string{"delete", resourceType, name}
	args = withNamespace(args, opts.Namespace)
	if opts.Force {
		args = append(args, "--force")
	}

	_, err := r.RunCommand(ctx, args...)
	return err
}

// GetOptions tweak resource retrieval.
type GetOptions struct {
	Namespace string
	// Output is the kubectl output format (json, yaml, wide...). Empty
	// uses kubectl's default.
	Output        string
	AllNamespaces bool
}

// Get returns one or more resources. An empty name returns all resources of
// the type.
func (r *Runner) Get(ctx context.Context, resourceType, name string, opts GetOptions) (string, error) {
	args := []string{"get", resourceType}
	if name != "" {
		args = append(args, name)
	}
	args = withNamespace(args, opts.Namespace)
	if opts.AllNamespaces {
		args = append(args, "--all-namespaces")
	}
	if opts.Output != "" {
		args = append(args, "-o", opts.Output)
	}

	return r.RunCommand(ctx, args...)
}

// Describe describes a resource.
func (r *Runner) Describe(ctx context.Context, resourceType, name, namespace string) (string, error) {
	args := []string{"describe", resourceType, name}
	args = withNamespace(args, namespace)

	return r.RunCommand(ctx, args...)
}

// PodListOptions filter pod listings.
type PodListOptions struct {
	Namespace     string
	LabelSelector string
	FieldSelector string
}

// ListPods lists pods as decoded manifest objects.
func (r *Runner) ListPods(ctx context.Context, opts PodListOptions) ([]map[string]any, error) {
	args := []string{"get", "pods", "-o", "json"}
	args = withNamespace(args, opts.Namespace)
	if opts.LabelSelector != "" {
		args = append(args, "-l", opts.LabelSelector)
	}
	if opts.FieldSelector != "" {
		args = append(args, "--field-selector", opts.FieldSelector)
	}

	list := struct {
		Items []map[string]any `json:"items"`
	}{}
	if err := r.RunCommandJSON(ctx, &list, args...); err != nil {
		return nil, err
	}

	return list.Items, nil
}

// LogOptions tweak pod log retrieval.
type LogOptions struct {
	Namespace string
	Container string
	// Tail limits the output to the last N lines. Zero returns everything.
	Tail int
	// Previous returns the logs of the previous container instance.
	Previous bool
}

// Logs returns the logs of a pod.
func (r *Runner) Logs(ctx context.Context, podName string, opts LogOptions) (string, error) {
	args := []string{"logs", podName}
	args = withNamespace(args, opts.Namespace)
	if opts.Container != "" {
		args = append(args, "-c", opts.Container)
	}
	if opts.Tail > 0 {
		args = append(args, "--tail", fmt.Sprintf("%d", opts.Tail))
	}
	if opts.Previous {
		args = append(args, "--previous")
	}

	return r.RunCommand(ctx, args...)
}

// ExecOptions tweak in-pod command execution.
type ExecOptions struct {
	Namespace string
	Container string
}

// Exec runs a command inside a pod and returns its output.
func (r *Runner) Exec(ctx context.Context, podName string, command []string, opts ExecOptions) (string, error) {
	args := []string{"exec", podName}
	args = withNamespace(args, opts.Namespace)
	if opts.Container != "" {
		args = append(args, "-c", opts.Container)
	}
	args = append(args, "--")
	args = append(args, command...)

	return r.RunCommand(ctx, args...)
}

// PortForward forwards local ports to a resource (`pod/name`,
// `service/name`). It blocks until the forwarding stops, so callers wanting
// it in the background run it in a goroutine and stop it through ctx.
func (r *Runner) PortForward(ctx context.Context, resource, ports, namespace string) error {
	r.logger.Infof("Forwarding %s on %s", ports, resource)

	args := []string{"port-forward", resource, ports}
	args = withNamespace(args, namespace)
	argv := append(r.baseArgs(), args...)

	_, err := r.runner.Run(ctx, shell.Request{Argv: argv, Check: true})
	if err != nil && ctx.Err() != nil {
		// Cancellation is the regular way to stop forwarding.
		return nil
	}
	if err != nil {
		return fmt.Errorf("kubectl port-forward failed: %w", err)
	}
	return nil
}

// TopNodes returns node resource usage. Requires metrics-server.
func (r *Runner) TopNodes(ctx context.Context) (string, error) {
	return r.RunCommand(ctx, "top", "nodes")
}

// TopPods returns pod resource usage. Requires metrics-server.
func (r *Runner) TopPods(ctx context.Context, namespace string) (string, error) {
	args := withNamespace([]string{"top", "pods"}, namespace)
	return r.RunCommand(ctx, args...)
}

// Scale scales a deployment, replicaset or statefulset.
func (r *Runner) Scale(ctx context.Context, resourceType, name string, replicas int, namespace string) error {
	r.logger.Infof("Scaling %s/%s to %d replicas", resourceType, name, replicas)

	args := []string{"scale", resourceType, name, fmt.Sprintf("--replicas=%d", replicas)}
	args = withNamespace(args, namespace)

	_, err := r.RunCommand(ctx, args...)
	return err
}

// RolloutStatus returns the rollout status of a resource.
func (r *Runner) RolloutStatus(ctx context.Context, resourceType, name, namespace string) (string, error) {
	args := []string{"rollout", "status", resourceType, name}
	args = withNamespace(args, namespace)

	return r.RunCommand(ctx, args...)
}

// RolloutRestart restarts the rollout of a resource.
func (r *Runner) RolloutRestart(ctx context.Context, resourceType, name, namespace string) (string, error) {
	r.logger.Infof("Restarting %s/%s", resourceType, name)

	args := []string{"rollout", "restart", resourceType, name}
	args = withNamespace(args, namespace)

	return r.RunCommand(ctx, args...)
}

// CreateNamespace creates a namespace.
func (r *Runner) CreateNamespace(ctx context.Context, name string) error {
	r.logger.Infof("Creating namespace %s", name)

	_, err := r.RunCommand(ctx, "create", "namespace", name)
	return err
}

// DeleteNamespace deletes a namespace.
func (r *Runner) DeleteNamespace(ctx context.Context, name string) error {
	r.logger.Warningf("Deleting namespace %s", name)

	_, err := r.RunCommand(ctx, "delete", "namespace", name)
	return err
}

// ListNamespaces lists namespaces as decoded manifest objects.
func (r *Runner) ListNamespaces(ctx context.Context) ([]map[string]any, error) {
	list := struct {
		Items []map[string]any `json:"items"`
	}{}
	if err := r.RunCommandJSON(ctx, &list, "get", "namespaces", "-o", "json"); err != nil {
		return nil, err
	}

	return list.Items, nil
}

// CurrentContext returns the current kubeconfig context.
func (r *Runner) CurrentContext(ctx context.Context) (string, error) {
	out, err := r.RunCommand(ctx, "config", "current-context")
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(out), nil
}

// UseContext switches the kubeconfig context, both for kubectl and for all
// subsequent commands of this runner.
func (r *Runner) UseContext(ctx context.Context, kubeContext string) error {
	r.logger.Infof("Switching to context %s", kubeContext)

	if _, err := r.RunCommand(ctx, "config", "use-context", kubeContext); err != nil {
		return err
	}

	r.mu.Lock()
	r.context = kubeContext
	r.mu.Unlock()

	return nil
}

// ListContexts returns the available kubeconfig context names.
func (r *Runner) ListContexts(ctx context.Context) ([]string, error) {
	out, err := r.RunCommand(ctx, "config", "get-contexts", "-o", "name")
	if err != nil {
		return nil, err
	}

	contexts := []string{}
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			contexts = append(contexts, line)
		}
	}

	return contexts, nil
}

// Version returns the kubectl client and server versions.
func (r *Runner) Version(ctx context.Context) (map[string]any, error) {
	version := map[string]any{}
	if err := r.RunCommandJSON(ctx, &version, "version", "-o", "json"); err != nil {
		return nil, err
	}

	return version, nil
}

// ClusterInfo returns basic cluster endpoint information.
func (r *Runner) ClusterInfo(ctx context.Context) (string, error) {
	return r.RunCommand(ctx, "cluster-info")
}

func withNamespace(args []string, namespace string) []string {
	if namespace != "" {
		args = append(args, "-n", namespace)
	}
	return args
}
