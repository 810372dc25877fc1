package adapter

import (
	"regexp"
	"strings"
)

// Classification reasons recorded on kept process records.
const (
	ReasonROSToken        = "ros-token"
	ReasonPythonModule    = "python-module"
	ReasonPythonPathHint  = "python-path-hint"
	ReasonExePathHint     = "exe-path-hint"
	ReasonInstallLayout   = "install-lib-layout"
	reasonSystemNameDeny  = "system-name-deny"
	reasonInteractiveDeny = "interactive-deny"
	reasonSystemPath      = "system-path-prefix"
)

// selfToken marks the snapshot tool's own processes, which never belong in
// the arena they feed.
const selfToken = "graphsnap"

// Strong middleware signals in a command line.
var rosTokens = []string{
	"ros2",
	"rclcpp",
	"rclpy",
	"launch.py",
	"ament",
	"colcon",
	"micro_ros_agent",
	"gzsim",
	"gzserver",
	"gzclient",
	"rviz",
	"rviz2",
	"robot_state_publisher",
	"controller_manager",
	"joint_state_broadcaster",
	"ros_gz",
	"gazebo_ros",
	"cyclonedds",
	"fastdds",
	"fastrtps",
	"rmw_",
}

// Desktop and system services that are never graph nodes.
var systemNameDeny = map[string]struct{}{
	"systemd":              {},
	"systemd-journald":     {},
	"systemd-logind":       {},
	"dbus-daemon":          {},
	"NetworkManager":       {},
	"ModemManager":         {},
	"gnome-shell":          {},
	"Xorg":                 {},
	"Xwayland":             {},
	"wayland":              {},
	"pipewire":             {},
	"wireplumber":          {},
	"pulseaudio":           {},
	"bluetoothd":           {},
	"cupsd":                {},
	"chronyd":              {},
	"snapd":                {},
	"packagekitd":          {},
	"polkitd":              {},
	"agetty":               {},
	"udisksd":              {},
	"upowerd":              {},
	"landscape-manag":      {},
	"landscape-monit":      {},
	"gvfsd-fuse":           {},
	"gnome-keyring-daemon": {},
	"gdm-x-session":        {},
	"graphsnap":            {},
	"ros2-daemon":          {},
}

// System-owned executable locations; kept anyway when middleware tokens
// are present, so /usr/bin/ros2 survives.
var systemPathPrefixes = []string{
	"/usr/sbin",
	"/sbin",
	"/usr/lib/systemd",
	"/lib/systemd",
	"/usr/libexec",
}

// Install and workspace locations node executables live under.
var rosPathHints = []string{
	"/opt/ros/",
	"/install/",
	"/build/",
	"/ws/",
	"/ros_ws/",
}

// Shells and editors; a shell that launched a node carries middleware
// tokens of its own and is not caught by this.
var interactiveDenyTokens = []string{
	"bash",
	"zsh",
	"fish",
	"tmux",
	"screen",
	"code",
	"vim",
	"nvim",
	"emacs",
}

// Node executables installed by a workspace build land under
// install/<pkg>/lib/<pkg>/<node>.
var installLibLayout = regexp.MustCompile(`/install/.+/lib/.+/.+`)

// Classify decides whether one process belongs in the arena. It returns
// the reason tag of the first matching keep-heuristic, or false when the
// process is not graph-like or is obvious system noise.
func Classify(name string, cmdline []string, exe string) (string, bool) {
	if len(cmdline) == 0 && name == "" {
		return "", false
	}

	hay := strings.ToLower(strings.Join(cmdline, " "))

	noise := systemNoise(name, hay, exe)
	reason, rosy := looksRosy(cmdline, hay, exe)

	if rosy && (noise == "" || strings.Contains(hay, "ros2")) {
		return reason, true
	}
	return "", false
}

func looksRosy(cmdline []string, hay, exe string) (string, bool) {
	if strings.Contains(hay, selfToken) {
		return "", false
	}

	for _, tok := range rosTokens {
		if strings.Contains(hay, tok) {
			return ReasonROSToken, true
		}
	}

	// Python module style: python3 -m pkg.node or a script under a
	// workspace or site-packages path.
	if len(cmdline) > 0 && strings.Contains(strings.ToLower(cmdline[0]), "python") {
		for _, arg := range cmdline {
			if arg == "-m" {
				return ReasonPythonModule, true
			}
		}
		if containsAny(hay, rosPathHints) || strings.Contains(hay, "site-packages") {
			return ReasonPythonPathHint, true
		}
	}

	if exe != "" && containsAny(exe, rosPathHints) {
		return ReasonExePathHint, true
	}

	if exe != "" && installLibLayout.MatchString(exe) {
		return ReasonInstallLayout, true
	}

	return "", false
}

func systemNoise(name, hay, exe string) string {
	if _, ok := systemNameDeny[strings.TrimSpace(name)]; ok {
		return reasonSystemNameDeny
	}

	hasROSToken := false
	for _, tok := range rosTokens {
		if strings.Contains(hay, tok) {
			hasROSToken = true
			break
		}
	}

	if !hasROSToken && containsAny(hay, interactiveDenyTokens) {
		return reasonInteractiveDeny
	}

	if exe != "" && !hasROSToken {
		for _, prefix := range systemPathPrefixes {
			if strings.HasPrefix(exe, prefix) {
				return reasonSystemPath
			}
		}
	}

	return ""
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
