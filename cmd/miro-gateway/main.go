// miro-gateway exposes read access to Miro boards and LLM-backed feature
// generation for agile epics over a small HTTP API.
//
// Usage:
//
//	# Serve the API on LISTEN_ADDR (127.0.0.1:8000 by default)
//	miro-gateway serve
//
//	# Run behind API Gateway as a Lambda function
//	miro-gateway lambda
//
//	# Inspect a board from the terminal
//	miro-gateway frames --board uXjVO123
//	miro-gateway cards --board uXjVO123 --frame 3458764523
package main

func main() {
	Execute()
}
