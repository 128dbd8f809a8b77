package arduino

import (
	"github.com/go-tab5/tab5duino/pkg/framework"
)

// Run is the sketch entry point: it builds a framework with the given
// configuration, initializes it, binds the shim to its GPIO and clock,
// starts setup/loop and blocks forever. It returns only on a failure to
// bring the framework up.
func Run(cfg framework.Config, setup, loop func()) error {
	return RunWith(cfg, framework.Deps{}, setup, loop)
}

// RunWith is Run with explicit hardware collaborators.
func RunWith(cfg framework.Config, deps framework.Deps, setup, loop func()) error {
	f := framework.New(cfg, deps)
	if err := f.Init(); err != nil {
		return err
	}
	Bind(f.GPIO(), f.BootTime())
	if err := f.Start(setup, loop); err != nil {
		f.Deinit()
		return err
	}
	select {}
}
