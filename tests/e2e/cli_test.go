package e2e_test

import (
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rogpeppe/go-internal/testscript"
)

var (
	binaryPath string
	buildOnce  sync.Once
	buildErr   error
)

// buildBinary builds the testkit binary once for all testscript tests.
func buildBinary(t *testing.T) string {
	t.Helper()
	buildOnce.Do(func() {
		binDir := filepath.Join(os.TempDir(), "testkit_testscript_bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			buildErr = err
			return
		}
		binaryPath = filepath.Join(binDir, "testkit")
		buildCmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/testkit")
		if out, err := buildCmd.CombinedOutput(); err != nil {
			buildErr = err
			t.Logf("Failed to build CLI: %v\n%s", err, out)
		}
	})
	if buildErr != nil {
		t.Fatal(buildErr)
	}
	return binaryPath
}

func TestCLI(t *testing.T) {
	bin := buildBinary(t)
	port := getFreePort(t)

	// Run testscript against all .txt files in testdata/
	testscript.Run(t, testscript.Params{
		Dir: "testdata",
		Setup: func(env *testscript.Env) error {
			binDir := filepath.Dir(bin)
			env.Setenv("PATH", binDir+string(os.PathListSeparator)+env.Getenv("PATH"))
			env.Setenv("PORT", strconv.Itoa(port))
			return nil
		},
		Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
			"get": cmdGet,
		},
	})
}

// cmdGet fetches a URL, retrying while the server boots, and writes the
// response body to a file in the script's work dir. An optional third
// argument asserts the response status.
//
//	get http://localhost:$PORT/ping body.txt 200
func cmdGet(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("unsupported: ! get")
	}
	if len(args) != 2 && len(args) != 3 {
		ts.Fatalf("usage: get url file [status]")
	}

	client := &http.Client{Timeout: 5 * time.Second}
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := client.Get(args[0])
		if err != nil {
			if time.Now().After(deadline) {
				ts.Fatalf("get %s: %v", args[0], err)
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		ts.Check(err)
		if len(args) == 3 {
			want, err := strconv.Atoi(args[2])
			ts.Check(err)
			if resp.StatusCode != want {
				ts.Fatalf("get %s: status %d, want %d", args[0], resp.StatusCode, want)
			}
		}
		ts.Check(os.WriteFile(ts.MkAbs(args[1]), body, 0o644))
		return
	}
}

func getFreePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("failed to get port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// TestMain acts as the main entrypoint. Testscript requires its own Main wrapper.
func TestMain(m *testing.M) {
	// Clean up the binary after all tests finish
	defer func() {
		if binaryPath != "" {
			os.Remove(binaryPath)
		}
	}()

	os.Exit(testscript.RunMain(m, nil))
}
