package testkit

import "testing"

var (
	addFn       = func(a, b int) int { return a + b }
	swapTargetS = "pool-a"
)

func TestSwap_FunctionAndRestore(t *testing.T) {
	t.Run("swap-in-subtest", func(t *testing.T) {
		if got := addFn(1, 2); got != 3 {
			t.Fatalf("precondition failed, addFn(1,2)=%d want 3", got)
		}
		Swap(t, &addFn, func(a, b int) int { return 99 })
		if got := addFn(1, 2); got != 99 {
			t.Fatalf("swap did not take effect, got %d want 99", got)
		}
	})

	if got := addFn(1, 2); got != 3 {
		t.Fatalf("swap did not restore original, got %d want 3", got)
	}
}

func TestSwap_NonFunctionType(t *testing.T) {
	t.Run("string", func(t *testing.T) {
		Swap(t, &swapTargetS, "pool-b")
		if swapTargetS != "pool-b" {
			t.Fatalf("swap failed, got %q", swapTargetS)
		}
	})
	if swapTargetS != "pool-a" {
		t.Fatalf("swap did not restore original, got %q", swapTargetS)
	}
}
