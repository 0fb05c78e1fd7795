package config

import (
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// CustomHooks are the decode hooks applied whenever tpccbench configuration is unmarshalled, either by viper
// or directly through mapstructure.
var CustomHooks = []viper.DecoderConfigOption{
	viper.DecodeHook(DecodeHook()),
}

// DecodeHook composes the hooks used for tpccbench configuration: durations may be given either as Go duration
// strings ("60s") or as a bare number of seconds.
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		SecondsToDurationHookFunc(),
	)
}

func SecondsToDurationHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		durationType := reflect.TypeOf(time.Duration(0))
		if t != durationType || f == durationType {
			return data, nil
		}
		switch f.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return time.Duration(reflect.ValueOf(data).Int()) * time.Second, nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return time.Duration(reflect.ValueOf(data).Uint()) * time.Second, nil
		case reflect.Float32, reflect.Float64:
			return time.Duration(reflect.ValueOf(data).Float() * float64(time.Second)), nil
		case reflect.String:
			return data, nil
		default:
			return nil, fmt.Errorf("cannot convert %v of type %s to a duration", data, f)
		}
	}
}

// DecodeMap decodes a loosely typed map (e.g. from a JSON request body) into target using the same hooks as viper.
func DecodeMap(input map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       DecodeHook(),
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}
