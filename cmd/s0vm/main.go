package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"s0vm/vm"
)

var log = logrus.New()

func main() {
	rootCmd := &cobra.Command{
		Use:   "s0vm",
		Short: "S0 bytecode virtual machine",
	}

	var trace bool
	var maxStack int

	runCmd := &cobra.Command{
		Use:   "run <program.json>",
		Short: "Load and execute a program to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := loadProgram(args[0])
			if err != nil {
				return err
			}

			var opts []vm.Option
			if maxStack > 0 {
				opts = append(opts, vm.WithMaxStack(maxStack))
			}
			if trace {
				log.SetLevel(logrus.DebugLevel)
				opts = append(opts, vm.WithTrace(func(fnID uint32, ip int, op vm.Op) {
					log.WithFields(logrus.Fields{"fn": fnID, "ip": ip}).Debug(op.String())
				}))
			}

			machine, err := vm.New(prog, os.Stdin, os.Stdout, opts...)
			if err != nil {
				return fmt.Errorf("constructing vm: %w", err)
			}

			log.Info("run starting")
			err = machine.RunToEnd()
			if vm.IsHalt(err) {
				log.Info("run halted cleanly")
				return nil
			}
			return fmt.Errorf("run failed: %w", err)
		},
	}
	runCmd.Flags().BoolVar(&trace, "trace", false, "log each executed instruction")
	runCmd.Flags().IntVar(&maxStack, "max-stack", 0, "override the operand stack bound (0 = default)")

	disasmCmd := &cobra.Command{
		Use:   "disasm <program.json>",
		Short: "Print one line per instruction per function",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := loadProgram(args[0])
			if err != nil {
				return err
			}
			for i, fn := range prog.Functions {
				fmt.Printf("fn #%d (params=%d locals=%d rets=%d)\n", i, fn.ParamSlots, fn.LocSlots, fn.RetSlots)
				for ip, op := range fn.Ins {
					fmt.Printf("  %4d  %s\n", ip, op)
				}
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, disasmCmd)

	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("command failed")
		os.Exit(exitCode(err))
	}
}

func loadProgram(path string) (*vm.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	prog, err := vm.DecodeProgramJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return prog, nil
}

// exitCode maps a vm.Error's kind to a process exit status; anything
// else (flag errors, IO errors outside the VM) exits 1.
func exitCode(err error) int {
	var ve *vm.Error
	if !errors.As(err, &ve) {
		return 1
	}
	switch ve.Kind {
	case vm.ErrDivZero, vm.ErrOutOfMemory:
		return 2
	case vm.ErrInvalidInstruction, vm.ErrInvalidAddress, vm.ErrUnalignedAccess:
		return 3
	default:
		return 1
	}
}
