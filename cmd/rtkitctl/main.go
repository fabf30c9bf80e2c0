//go:build linux

// rtkitctl exercises the rtkit daemon from the command line: read its
// policy limits, or ask it to elevate a thread's scheduling priority.
package main

import (
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"rtkit"
	"rtkit/sched"
)

var log = logrus.New()

func main() {
	root := &cobra.Command{
		Use:           "rtkitctl",
		Short:         "Query and exercise the RealtimeKit daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(statusCmd(), highPriorityCmd(), realtimeCmd())
	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the daemon's policy limits and our identifiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rtkit.Open()
			if err != nil {
				return err
			}
			defer c.Close()

			max, err := c.MaxRealtimePriority()
			if err != nil {
				return err
			}
			min, err := c.MinNiceLevel()
			if err != nil {
				return err
			}
			rttime, err := c.RTTimeUSecMax()
			if err != nil {
				return err
			}

			log.WithFields(logrus.Fields{
				"max_realtime_priority": max,
				"min_nice_level":        min,
				"rttime_usec_max":       rttime,
			}).Info("daemon policy limits")
			log.WithFields(logrus.Fields{
				"pid": rtkit.CurrentProcessID(),
				"tid": rtkit.CurrentThreadID(),
			}).Info("local identity")
			return nil
		},
	}
}

func highPriorityCmd() *cobra.Command {
	var (
		nice int32
		tid  uint64
		pid  uint64
	)
	cmd := &cobra.Command{
		Use:   "high-priority",
		Short: "Request a (negative) nice level for a thread",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rtkit.Open()
			if err != nil {
				return err
			}
			defer c.Close()

			runtime.LockOSThread()
			if tid == 0 {
				tid = rtkit.CurrentThreadID()
			}

			if cmd.Flags().Changed("pid") {
				err = c.MakeThreadHighPriorityWithPID(pid, tid, nice)
			} else {
				err = c.MakeThreadHighPriority(tid, nice)
			}
			if err != nil {
				return err
			}

			got, err := sched.Nice(int(tid))
			if err != nil {
				return err
			}
			log.WithFields(logrus.Fields{"tid": tid, "nice": got}).Info("nice level granted")
			return nil
		},
	}
	cmd.Flags().Int32VarP(&nice, "nice", "n", -10, "nice level to request")
	cmd.Flags().Uint64Var(&tid, "tid", 0, "target thread id (default: current thread)")
	cmd.Flags().Uint64Var(&pid, "pid", 0, "target process id (default: own process)")
	return cmd
}

func realtimeCmd() *cobra.Command {
	var (
		priority uint32
		tid      uint64
		pid      uint64
	)
	cmd := &cobra.Command{
		Use:   "realtime",
		Short: "Request a real-time priority for a thread",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rtkit.Open()
			if err != nil {
				return err
			}
			defer c.Close()

			rttime, err := c.RTTimeUSecMax()
			if err != nil {
				return err
			}
			if err := sched.SetRTTimeLimit(uint64(rttime)); err != nil {
				return err
			}
			log.WithField("rttime_usec", rttime).Debug("RLIMIT_RTTIME set")

			runtime.LockOSThread()
			if tid == 0 {
				tid = rtkit.CurrentThreadID()
			}

			if cmd.Flags().Changed("pid") {
				err = c.MakeThreadRealtimeWithPID(pid, tid, priority)
			} else {
				err = c.MakeThreadRealtime(tid, priority)
			}
			if err != nil {
				return err
			}

			attr, err := sched.GetAttr(int(tid))
			if err != nil {
				return err
			}
			log.WithFields(logrus.Fields{
				"tid":      tid,
				"policy":   attr.Policy,
				"priority": attr.Priority,
			}).Info("real-time priority granted")
			return nil
		},
	}
	cmd.Flags().Uint32VarP(&priority, "priority", "p", 5, "real-time priority to request")
	cmd.Flags().Uint64Var(&tid, "tid", 0, "target thread id (default: current thread)")
	cmd.Flags().Uint64Var(&pid, "pid", 0, "target process id (default: own process)")
	return cmd
}
