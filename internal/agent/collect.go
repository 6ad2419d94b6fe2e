package agent

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/five82/homedash/internal/homeapi"
)

// Filesystem types never reported as disks.
var skippedFilesystems = map[string]bool{
	"tmpfs":    true,
	"devtmpfs": true,
	"overlay":  true,
	"squashfs": true,
	"cgroup":   true,
	"cgroup2":  true,
}

// Collector gathers the local hardware and network status.
type Collector interface {
	Collect(ctx context.Context) (homeapi.NodeStatus, error)
}

// CollectorFunc adapts a function to Collector.
type CollectorFunc func(ctx context.Context) (homeapi.NodeStatus, error)

// Collect implements Collector.
func (f CollectorFunc) Collect(ctx context.Context) (homeapi.NodeStatus, error) { return f(ctx) }

// SystemCollector reads counters from the running machine.
type SystemCollector struct {
	// Sample is how long cpu usage is measured for.
	Sample time.Duration
}

// Collect implements Collector. Only the cpu sample is fatal; every other
// counter degrades to an empty value.
func (s SystemCollector) Collect(ctx context.Context) (homeapi.NodeStatus, error) {
	cpuUse, err := s.cpuUsage(ctx)
	if err != nil {
		return homeapi.NodeStatus{}, fmt.Errorf("cpu usage: %w", err)
	}

	status := homeapi.NodeStatus{
		Services: []homeapi.ServiceStatus{},
		Docker:   []homeapi.Container{},
		Hardware: homeapi.HardwareStatus{
			CPUIdlePercentages: cpuUse,
			RAM:                ramUsage(ctx),
			Disk:               diskUsage(ctx),
			Temperature:        temperature(ctx),
			Uptime:             uptime(ctx),
		},
	}
	status.Network.Hostname, _ = os.Hostname()
	status.Network.LocalIP = localIPs()
	return status, nil
}

// cpuUsage returns busy percentages keyed "all", "core0", "core1", ...
func (s SystemCollector) cpuUsage(ctx context.Context) (map[string]float64, error) {
	sample := s.Sample
	if sample <= 0 {
		sample = time.Second
	}
	total, err := cpu.PercentWithContext(ctx, sample, false)
	if err != nil {
		return nil, err
	}
	perCore, err := cpu.PercentWithContext(ctx, 0, true)
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64, len(perCore)+1)
	if len(total) > 0 {
		out["all"] = total[0]
	}
	for i, v := range perCore {
		out["core"+strconv.Itoa(i)] = v
	}
	return out, nil
}

// ramUsage mirrors the total, used and free columns of `free -h`.
func ramUsage(ctx context.Context) []string {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return []string{"N/A", "N/A", "N/A"}
	}
	return []string{humanBytes(vm.Total), humanBytes(vm.Used), humanBytes(vm.Free)}
}

func diskUsage(ctx context.Context) map[string]homeapi.DiskUsage {
	out := make(map[string]homeapi.DiskUsage)
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return out
	}
	for _, p := range parts {
		if skippedFilesystems[p.Fstype] || strings.HasPrefix(p.Mountpoint, "/snap") {
			continue
		}
		if _, seen := out[p.Device]; seen {
			continue
		}
		u, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil || u.Total == 0 {
			continue
		}
		out[p.Device] = homeapi.DiskUsage{
			Size:      humanBytes(u.Total),
			Used:      humanBytes(u.Used),
			Available: humanBytes(u.Free),
			Percent:   strconv.Itoa(int(u.UsedPercent+0.5)) + "%",
			Mount:     p.Mountpoint,
		}
	}
	return out
}

// temperature reports the first cpu or soc sensor in degrees Celsius.
func temperature(ctx context.Context) string {
	temps, err := host.SensorsTemperaturesWithContext(ctx)
	if err != nil && len(temps) == 0 {
		return "N/A"
	}
	for _, t := range temps {
		key := strings.ToLower(t.SensorKey)
		if strings.Contains(key, "cpu") || strings.Contains(key, "soc") || strings.Contains(key, "pkg") || strings.Contains(key, "coretemp") {
			return strconv.FormatFloat(t.Temperature, 'f', 1, 64)
		}
	}
	return "N/A"
}

func uptime(ctx context.Context) string {
	secs, err := host.UptimeWithContext(ctx)
	if err != nil {
		return ""
	}
	return FormatUptime(time.Duration(secs) * time.Second)
}

func localIPs() []homeapi.LocalIP {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}
	var out []homeapi.LocalIP
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipnet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			kind := "ipv6"
			if ipnet.IP.To4() != nil {
				kind = "ipv4"
			}
			out = append(out, homeapi.LocalIP{Address: ipnet.IP.String(), Device: iface.Name, Type: kind})
		}
	}
	return out
}

// FormatUptime renders d the way `uptime -p` does.
func FormatUptime(d time.Duration) string {
	minutes := int(d / time.Minute)
	days := minutes / (24 * 60)
	hours := minutes / 60 % 24
	mins := minutes % 60

	var parts []string
	add := func(n int, unit string) {
		if n == 0 {
			return
		}
		if n != 1 {
			unit += "s"
		}
		parts = append(parts, strconv.Itoa(n)+" "+unit)
	}
	add(days, "day")
	add(hours, "hour")
	add(mins, "minute")
	if len(parts) == 0 {
		return "up 0 minutes"
	}
	return "up " + strings.Join(parts, ", ")
}

// humanBytes renders n with binary prefixes like `free -h`.
func humanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatUint(n, 10) + "B"
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(n)/float64(div), 'f', 1, 64) + string("KMGTPE"[exp]) + "i"
}
