package client

import (
	"fmt"

	"github.com/bytedance/sonic"
)

func PrintJSON(v interface{}) error {
	b, err := sonic.ConfigStd.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", b)

	return nil
}
