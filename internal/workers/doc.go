/*
Package workers sizes worker pools in containerized environments.

runtime.NumCPU reports the host's CPUs, while GOMAXPROCS follows the container's CPU limit
(Go 1.19+). [Count] and [ForCPU] size pools from GOMAXPROCS so that a pod limited to 2 CPUs
on a 64-core node does not start 64 ffmpeg processes.

	// At most 4 concurrent transcodes, one per CPU, TRANSCODE_WORKERS overrides.
	n := workers.ForCPU("TRANSCODE_WORKERS", 4)

Operators can pin the count with the named environment variable:

	env:
	- name: TRANSCODE_WORKERS
	  value: "2"
*/
package workers
