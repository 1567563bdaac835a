package main

import "github.com/HossamJa/devops-capstone-project/internal/cli"

func main() {
	cli.Execute()
}
