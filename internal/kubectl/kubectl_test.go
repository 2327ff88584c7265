package kubectl_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adsysio/adsys/internal/kubectl"
	"github.com/adsysio/adsys/internal/model"
	"github.com/adsysio/adsys/internal/shell"
)

type fakeRunner struct {
	requests []shell.Request
	stdout   map[string]string
}

func (f *fakeRunner) Run(ctx context.Context, req shell.Request) (*model.ExecResult, error) {
	f.requests = append(f.requests, req)

	cmd := strings.Join(req.Argv, " ")
	out := ""
	for substr, s := range f.stdout {
		if strings.Contains(cmd, substr) {
			out = s
			break
		}
	}

	return &model.ExecResult{Stdout: out, Command: cmd}, nil
}

func newRunner(t *testing.T, runner shell.Runner) *kubectl.Runner {
	t.Helper()
	r, err := kubectl.NewRunner(kubectl.RunnerConfig{
		Kubeconfig: "/home/user/.kube/config",
		Context:    "prod",
		Namespace:  "default",
		Runner:     runner,
	})
	require.NoError(t, err)
	return r
}

func TestRunnerBaseArgs(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	runner := &fakeRunner{}

	_, err := newRunner(t, runner).Apply(context.TODO(), "deploy.yaml", "")

	require.NoError(err)
	assert.Equal([]string{
		"kubectl",
		"--kubeconfig", "/home/user/.kube/config",
		"--context", "prod",
		"--namespace", "default",
		"apply", "-f", "deploy.yaml",
	}, runner.requests[0].Argv)
	assert.True(runner.requests[0].Check)
}

func TestRunnerNamespaceOverride(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	runner := &fakeRunner{}

	err := newRunner(t, runner).Delete(context.TODO(), "pod", "web-1", kubectl.DeleteOptions{
		Namespace: "staging",
		Force:     true,
	})

	require.NoError(err)
	argv := strings.Join(runner.requests[0].Argv, " ")
	assert.Contains(argv, "delete pod web-1 -n staging --force")
}

func TestRunnerListPods(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	runner := &fakeRunner{stdout: map[string]string{
		"get pods": `{"items": [{"metadata": {"name": "web-1"}}, {"metadata": {"name": "web-2"}}]}`,
	}}

	pods, err := newRunner(t, runner).ListPods(context.TODO(), kubectl.PodListOptions{
		LabelSelector: "app=web",
	})

	require.NoError(err)
	require.Len(pods, 2)
	metadata, ok := pods[0]["metadata"].(map[string]any)
	require.True(ok)
	assert.Equal("web-1", metadata["name"])

	argv := strings.Join(runner.requests[0].Argv, " ")
	assert.Contains(argv, "get pods -o json -l app=web")
}

func TestRunnerExec(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	runner := &fakeRunner{stdout: map[string]string{"exec": "tmp"}}

	out, err := newRunner(t, runner).Exec(context.TODO(), "web-1", []string{"ls", "/tmp"}, kubectl.ExecOptions{
		Container: "app",
	})

	require.NoError(err)
	assert.Equal("tmp", out)
	argv := strings.Join(runner.requests[0].Argv, " ")
	assert.Contains(argv, "exec web-1 -c app -- ls /tmp")
}

func TestRunnerLogs(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	runner := &fakeRunner{}

	_, err := newRunner(t, runner).Logs(context.TODO(), "web-1", kubectl.LogOptions{
		Tail:     100,
		Previous: true,
	})

	require.NoError(err)
	argv := strings.Join(runner.requests[0].Argv, " ")
	assert.Contains(argv, "logs web-1 --tail 100 --previous")
}

func TestRunnerPortForward(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	runner := &fakeRunner{}

	err := newRunner(t, runner).PortForward(context.TODO(), "pod/web-1", "8080:80", "staging")

	require.NoError(err)
	argv := strings.Join(runner.requests[0].Argv, " ")
	assert.Contains(argv, "port-forward pod/web-1 8080:80 -n staging")
	assert.True(runner.requests[0].Check)
}

func TestRunnerTopPods(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	runner := &fakeRunner{stdout: map[string]string{"top pods": "web-1 10m 50Mi"}}

	out, err := newRunner(t, runner).TopPods(context.TODO(), "")

	require.NoError(err)
	assert.Equal("web-1 10m 50Mi", out)
	assert.Contains(strings.Join(runner.requests[0].Argv, " "), "top pods")
}

func TestRunnerScale(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	runner := &fakeRunner{}

	err := newRunner(t, runner).Scale(context.TODO(), "deployment", "web", 3, "")

	require.NoError(err)
	argv := strings.Join(runner.requests[0].Argv, " ")
	assert.Contains(argv, "scale deployment web --replicas=3")
}

func TestRunnerUseContextSwitchesSubsequentCommands(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	runner := &fakeRunner{}
	r := newRunner(t, runner)

	require.NoError(r.UseContext(context.TODO(), "staging"))
	_, err := r.ClusterInfo(context.TODO())
	require.NoError(err)

	require.Len(runner.requests, 2)
	assert.Contains(strings.Join(runner.requests[1].Argv, " "), "--context staging")
}

func TestRunnerListContexts(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	runner := &fakeRunner{stdout: map[string]string{
		"get-contexts": "prod\nstaging\n",
	}}

	contexts, err := newRunner(t, runner).ListContexts(context.TODO())

	require.NoError(err)
	assert.Equal([]string{"prod", "staging"}, contexts)
}

func TestRunnerCurrentContext(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	runner := &fakeRunner{stdout: map[string]string{"current-context": "prod\n"}}

	current, err := newRunner(t, runner).CurrentContext(context.TODO())

	require.NoError(err)
	assert.Equal("prod", current)
}
