package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/openfga/xstream/pkg/device"
	"github.com/openfga/xstream/pkg/device/host"
	"github.com/openfga/xstream/pkg/signature"
	"github.com/openfga/xstream/pkg/xstream"
)

const (
	infoDevicesFlag = "devices"
	infoWorkersFlag = "workers"
)

// NewInfoCommand returns the command that describes the devices and argument types of a runtime.
func NewInfoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Describe the devices and argument types of the runtime",
		Long:  "Describe the devices, memory, priority range and argument types of a runtime over simulated host devices.",
		RunE:  info,
		Args:  cobra.NoArgs,
	}

	flags := cmd.Flags()
	flags.Int(infoDevicesFlag, host.DefaultDevices, "the number of simulated devices")
	flags.Int(infoWorkersFlag, 1, "the number of goroutines executing device work")

	return cmd
}

func info(cmd *cobra.Command, _ []string) error {
	devices, err := cmd.Flags().GetInt(infoDevicesFlag)
	if err != nil {
		return err
	}
	workers, err := cmd.Flags().GetInt(infoWorkersFlag)
	if err != nil {
		return err
	}

	backend, err := host.New(host.WithDevices(devices), host.WithWorkers(workers))
	if err != nil {
		return err
	}
	rt, err := xstream.New(xstream.WithBackend(backend))
	if err != nil {
		return errors.Join(err, backend.Close())
	}
	defer func() {
		_ = rt.Close(context.Background())
	}()

	w := cmd.OutOrStdout()
	least, greatest := rt.PriorityRange()
	fmt.Fprintf(w, "backend: %s\nactive device: %d\npriority range: least %d, greatest %d\n\n",
		backend, rt.ActiveDevice(), least, greatest)

	if err := writeDevices(w, rt); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return writeTypes(w)
}

func writeDevices(w io.Writer, rt *xstream.Runtime) error {
	var data [][]string
	for id := device.Host; id < rt.NDevices(); id++ {
		mem, err := rt.MemInfo(id)
		if err != nil {
			return err
		}
		name := strconv.Itoa(id)
		if id == device.Host {
			name = "host"
		}
		data = append(data, []string{name, format(mem.Free), format(mem.Total)})
	}

	table := newTable(w)
	table.SetHeader([]string{"DEVICE", "FREE", "TOTAL"})
	table.AppendBulk(data)
	table.Render()
	return nil
}

func writeTypes(w io.Writer) error {
	var data [][]string
	for t := signature.CHAR; t < signature.VOID; t++ {
		size, err := t.Size()
		if err != nil {
			return err
		}
		name, err := t.Name()
		if err != nil {
			return err
		}
		data = append(data, []string{name, strconv.Itoa(size)})
	}

	table := newTable(w)
	table.SetHeader([]string{"TYPE", "SIZE"})
	table.AppendBulk(data)
	table.Render()
	return nil
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	return table
}

func format(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
