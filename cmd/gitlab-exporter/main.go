package main

import "github.com/davarch/gitlab-exporter/cmd/gitlab-exporter/cli"

func main() {
	cli.Execute()
}
